package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistryIsolatesSessions(t *testing.T) {
	r := NewRegistry(time.Hour)

	alice := r.For("alice")
	bob := r.For("bob")
	assert.NotSame(t, alice, bob)
	assert.Same(t, alice, r.For("alice"))

	id := alice.CreateConversation("mine")
	assert.NotNil(t, r.For("alice").GetById(id))
	assert.Nil(t, bob.GetById(id))

}

func TestRegistryExpiresIdleSessions(t *testing.T) {
	r := NewRegistry(30 * time.Millisecond)

	id := r.For("alice").CreateConversation("mine")
	assert.NotNil(t, r.For("alice").GetById(id))

	time.Sleep(60 * time.Millisecond)
	assert.Nil(t, r.For("alice").GetById(id))
}
