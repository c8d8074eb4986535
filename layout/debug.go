package layout

import (
	"encoding/json"
	"os"
)

// WriteDebugJSON 将文本排版结果输出为 JSON，便于调试模板。
func WriteDebugJSON(blocks []Block, path string) error {
	if blocks == nil {
		blocks = []Block{}
	}
	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
