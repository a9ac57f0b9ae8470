package realtime

// EventType menandai jenis perubahan pada sebuah tabel.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Record adalah entitas yang bisa direkonsiliasi berdasarkan id-nya.
// models.Project dan models.Task memenuhi interface ini.
type Record interface {
	RecordID() string
}

// Event adalah satu change event dari sebuah tabel, di-scope ke satu user.
// Record kosong untuk event delete; RecordID selalu terisi.
type Event struct {
	Table    string    `json:"table"`
	Type     EventType `json:"type"`
	UserID   int       `json:"user_id"`
	RecordID string    `json:"record_id"`
	Record   Record    `json:"record,omitempty"`
}
