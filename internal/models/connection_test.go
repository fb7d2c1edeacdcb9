package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	assert.Equal(t, PairKey(a, b), PairKey(b, a))
	assert.NotEqual(t, PairKey(a, b), PairKey(a, primitive.NewObjectID()))
}

func TestNewConnection(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	conn := NewConnection(a, b)
	assert.Equal(t, PairKey(a, b), conn.PairKey)
	assert.True(t, conn.Includes(a))
	assert.True(t, conn.Includes(b))
	assert.False(t, conn.Includes(primitive.NewObjectID()))
	assert.Equal(t, b, conn.Other(a))
	assert.Equal(t, a, conn.Other(b))
	assert.Equal(t, int64(0), conn.Unread[a.Hex()])
	assert.Equal(t, int64(0), conn.Unread[b.Hex()])
}
