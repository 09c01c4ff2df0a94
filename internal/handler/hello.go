package handler

import (
	"github.com/dorfsim/server/internal/net"
	"github.com/dorfsim/server/internal/net/packet"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SendWelcome tells a new session the map bounds and its state.
func SendWelcome(sess *net.Session, deps *Deps) {
	r := deps.Cache.Rect()
	w := packet.NewWriterWithOpcode(packet.S_WELCOME)
	w.WriteD(r.Width())
	w.WriteD(r.Height())
	w.WriteD(r.Min.X)
	w.WriteD(r.Min.Y)
	w.WriteC(byte(sess.State()))
	sess.Send(w.Bytes())
}

// HandleHello processes C_HELLO. The password is checked against the
// configured bcrypt hash; a match upgrades the session to controller.
// Format: [opcode][password\0]
func HandleHello(sess *net.Session, r *packet.Reader, deps *Deps) {
	password := r.ReadS()
	if err := r.Err(); err != nil {
		sendResult(sess, packet.C_HELLO, false, 0, err.Error())
		return
	}
	if len(deps.PasswordHash) == 0 {
		sendResult(sess, packet.C_HELLO, false, 0, "control disabled")
		return
	}
	if err := bcrypt.CompareHashAndPassword(deps.PasswordHash, []byte(password)); err != nil {
		deps.Log.Info("control login rejected", zap.Uint64("session", sess.ID), zap.String("ip", sess.IP))
		sendResult(sess, packet.C_HELLO, false, 0, "wrong password")
		return
	}
	sess.SetState(packet.StateController)
	deps.Log.Info("control login", zap.Uint64("session", sess.ID), zap.String("ip", sess.IP))
	sendResult(sess, packet.C_HELLO, true, 0, "")
}

// sendResult answers a command.
// Format: [opcode][C request opcode][C ok][Q entity][S message]
func sendResult(sess *net.Session, op byte, ok bool, entity uint64, msg string) {
	w := packet.NewWriterWithOpcode(packet.S_RESULT)
	w.WriteC(op)
	w.WriteBool(ok)
	w.WriteQ(entity)
	w.WriteS(msg)
	sess.Send(w.Bytes())
}
