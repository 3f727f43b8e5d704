// Package identity builds the Instance Identity (§4.B): the stable value
// that names one running fabric instance across the registry, heartbeat,
// and HTTP surface.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/DNGriffin/clankercontext/pkg/sdk/types"
)

const idRandomBytes = 4

// Identity is the immutable identity of one fabric instance. Port is the
// only field that may be unknown at construction time: the Port Binder
// resolves it after the identity is created, so Identity is built before
// the listener exists and completed once binding succeeds.
type Identity struct {
	ID            string
	Name          string
	WorkspacePath string
	PID           int
	Port          int
}

// New builds an Identity for the current process. name and workspacePath
// are caller-supplied labels; port is 0 until WithPort is used to complete
// it. The id is pid-rooted with a random suffix so that two instances
// launched in the same millisecond, or a pid reused across a fast
// restart, never collide in the registry (§3).
func New(name, workspacePath string) Identity {
	return Identity{
		ID:            generateID(),
		Name:          name,
		WorkspacePath: workspacePath,
		PID:           os.Getpid(),
	}
}

// WithPort returns a copy of id with Port set, once the Port Binder has
// resolved which port this instance is listening on.
func (id Identity) WithPort(port int) Identity {
	id.Port = port
	return id
}

// Record converts the identity into the registry's wire shape, stamping
// lastHeartbeat with nowMillis.
func (id Identity) Record(nowMillis int64) types.InstanceRecord {
	return types.InstanceRecord{
		ID:            id.ID,
		Name:          id.Name,
		WorkspacePath: id.WorkspacePath,
		Port:          id.Port,
		PID:           id.PID,
		LastHeartbeat: nowMillis,
	}
}

func generateID() string {
	b := make([]byte, idRandomBytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is effectively unreachable on supported
		// platforms; fall back to an all-zero suffix rather than panic so
		// an instance can still start, at the cost of weaker uniqueness.
		return fmt.Sprintf("%x-%0*x", os.Getpid(), idRandomBytes*2, 0)
	}
	return fmt.Sprintf("%x-%s", os.Getpid(), hex.EncodeToString(b))
}
