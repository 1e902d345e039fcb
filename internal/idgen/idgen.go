package idgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// OrderNumberGenerator 生产订单号生成器，格式 MO-YYYYMMDD-<snowflake base36>
type OrderNumberGenerator struct {
	node   *snowflake.Node
	prefix string
}

// NewOrderNumberGenerator nodeID取值0-1023，多实例部署时各实例需不同
func NewOrderNumberGenerator(nodeID int64, prefix string) (*OrderNumberGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("init snowflake node %d: %w", nodeID, err)
	}
	return &OrderNumberGenerator{node: node, prefix: prefix}, nil
}

// Next 生成订单号
func (g *OrderNumberGenerator) Next(now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", g.prefix, now.Format("20060102"), strings.ToUpper(g.node.Generate().Base36()))
}
