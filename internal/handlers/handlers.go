package handlers

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	TotalCountHeader = "X-Total-Count"
)

// Query holds the react-admin style list parameters, range is "[start,end]" inclusive.
type Query struct {
	Range string `form:"range"`
}

func (q *Query) GetRange() (int, int, error) {
	var parts []int
	if err := json.Unmarshal([]byte(q.Range), &parts); err != nil {
		return 0, 0, err
	}
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("too many parts")
	}
	start := parts[0]
	end := parts[1]
	if start < 0 || end < start {
		return 0, 0, fmt.Errorf("invalid range")
	}
	pageSize := end - start + 1
	return pageSize, start, nil
}

func setTotalCount(c *gin.Context, count int) {
	c.Header("Access-Control-Expose-Headers", TotalCountHeader)
	c.Header(TotalCountHeader, strconv.Itoa(count))
}
