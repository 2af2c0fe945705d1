package layout

import (
	"encoding/json"
	"os"
)

// DebugDump 是调试 JSON 的顶层结构：分页计划与合成后的页面。
type DebugDump struct {
	Plan   *Plan   `json:"plan,omitempty"`
	Result *Result `json:"result,omitempty"`
}

// WriteDebugJSON 将分页计划与排版结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(path string, plan *Plan, res *Result) error {
	if plan == nil && res == nil {
		return nil
	}
	data, err := json.MarshalIndent(DebugDump{Plan: plan, Result: res}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
