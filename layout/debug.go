package layout

import (
	"encoding/json"
	"os"
)

// DebugDump 是调试 JSON 的根结构：场景输入与排版结果。
type DebugDump struct {
	Scene    *Scene    `json:"scene"`
	Captions []Caption `json:"captions"`
}

// WriteDebugJSON 将排版结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(scene *Scene, captions []Caption, path string) error {
	if scene == nil {
		return nil
	}
	data, err := json.MarshalIndent(DebugDump{Scene: scene, Captions: captions}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
