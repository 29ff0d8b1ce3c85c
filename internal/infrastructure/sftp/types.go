package sftp

import "time"

// FileEntry 目录列表中的单个条目
type FileEntry struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	IsDir    bool      `json:"is_dir"`
}

// ConnConfig 单次会话的连接描述符
type ConnConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}
