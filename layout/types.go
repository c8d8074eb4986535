package layout

// 该文件定义文本排版结果，供合成器绘制与调试 JSON 共用。

// Box 是以像素为单位的文本区域。
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Line 表示排版后的一行文本及其像素位置。
type Line struct {
	Content  string  `json:"content"`
	X        float64 `json:"x"`
	Y        int     `json:"y"` // 行顶部
	Baseline int     `json:"baseline"`
	Width    float64 `json:"width"`
	Height   int     `json:"height"`
}

// Block 记录某个文本图层的排版结果。
type Block struct {
	Layer int    `json:"layer"`
	Name  string `json:"name"`
	Text  string `json:"text"`
	Lines []Line `json:"lines"`
}
