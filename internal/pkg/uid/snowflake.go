package uid

import (
	"github.com/bwmarrin/snowflake"
)

// Snowflake generates sortable 64-bit numeric IDs.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a Snowflake generator for node 1.
func NewSnowflake() (*Snowflake, error) {
	return NewSnowflakeNode(1)
}

// NewSnowflakeNode returns a Snowflake generator for the given node ID.
func NewSnowflakeNode(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: node}, nil
}

// Generate returns a new numeric ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
