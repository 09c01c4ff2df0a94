package packet

// Client → server opcodes.
const (
	C_HELLO          byte = 0x01 // S password
	C_SET_GOAL       byte = 0x02 // Q entity, F x, F y
	C_PLACE_OBSTACLE byte = 0x03 // D x, D y, D w, D h
	C_MOVE_OBSTACLE  byte = 0x04 // Q entity, D x, D y
	C_REMOVE_ENTITY  byte = 0x05 // Q entity
	C_SPAWN_MOVER    byte = 0x06 // F x, F y, D w, D h, F speed
)

// Server → client opcodes.
const (
	S_WELCOME  byte = 0x80 // D width, D height, D origin x, D origin y, C state
	S_SNAPSHOT byte = 0x81 // Q tick, msgpack snapshot
	S_RESULT   byte = 0x82 // C opcode, C ok, Q entity, S message
)
