package market

import "time"

// HistoricalPoint 表示一根已解析的历史行情 K 线，解析完成后不再修改。
type HistoricalPoint struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// DownloadResult 汇总一个 symbol 的下载结果。
// Inserted+Skipped <= TotalRecords；只有写入端在限定时间内排空队列时才会取等号。
type DownloadResult struct {
	Symbol       string `json:"symbol"`
	TotalRecords int64  `json:"total_records"`
	Inserted     int64  `json:"inserted"`
	Skipped      int64  `json:"skipped"`
}
