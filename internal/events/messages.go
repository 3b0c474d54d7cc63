package events

import (
	"encoding/json"
	"time"
)

// SyncRequestMessage asks a worker to run a transaction sync for one user.
type SyncRequestMessage struct {
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncCompletedMessage reports the outcome of one bank account's sync.
type SyncCompletedMessage struct {
	UserID        int64     `json:"user_id"`
	BankAccountID int64     `json:"bank_account_id"`
	Added         int       `json:"added"`
	Modified      int       `json:"modified"`
	Removed       int       `json:"removed"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewSyncRequestMessage(userID int64) *SyncRequestMessage {
	return &SyncRequestMessage{UserID: userID, Timestamp: time.Now()}
}

func (m *SyncRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncRequestMessageFromJSON(data []byte) (*SyncRequestMessage, error) {
	var msg SyncRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *SyncCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
