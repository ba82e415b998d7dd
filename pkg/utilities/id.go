package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

var (
	nodeOnce sync.Once
	node     *snowflake.Node
	nodeErr  error
)

// NewSnowflakeID generates a snowflake ID string. The node ID comes from the
// SNOWFLAKE_NODE env var, defaulting to 1. If node setup fails it falls back
// to a KSUID so a unique ID is still returned.
func NewSnowflakeID() string {
	nodeOnce.Do(func() {
		nodeID := int64(1)
		if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
			if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
				nodeID = parsed
			}
		}
		node, nodeErr = snowflake.NewNode(nodeID)
	})
	if nodeErr != nil {
		return NewKSUID()
	}
	return node.Generate().String()
}

// NewRecordID returns the record ID generator selected by the ID_SCHEME env
// var: "snowflake", or KSUID by default.
func NewRecordID() func() string {
	if os.Getenv("ID_SCHEME") == "snowflake" {
		return NewSnowflakeID
	}
	return NewKSUID
}
