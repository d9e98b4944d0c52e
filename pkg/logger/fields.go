package logger

import "time"

// Common field constructors for structured logging

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration creates a duration field in milliseconds
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d.Milliseconds()}
}

// Any creates a field with any value
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// --- Domain-specific field helpers ---

// UserID creates a user_id field
func UserID(id int64) Field {
	return Field{Key: "user_id", Value: id}
}

// Email creates an email field
func Email(email string) Field {
	return Field{Key: "email", Value: email}
}

// CampaignID creates a campaign_id field
func CampaignID(id int64) Field {
	return Field{Key: "campaign_id", Value: id}
}

// Recipient creates a recipient field
func Recipient(email string) Field {
	return Field{Key: "recipient", Value: email}
}

// RecipientCount creates a recipient_count field
func RecipientCount(n int) Field {
	return Field{Key: "recipient_count", Value: n}
}

// SentCount creates a sent_count field
func SentCount(n int) Field {
	return Field{Key: "sent_count", Value: n}
}

// FailedCount creates a failed_count field
func FailedCount(n int) Field {
	return Field{Key: "failed_count", Value: n}
}

// MessageID creates a gmail message_id field
func MessageID(id string) Field {
	return Field{Key: "message_id", Value: id}
}

// WebhookEvent creates an event field
func WebhookEvent(event string) Field {
	return Field{Key: "event", Value: event}
}

// TargetURL creates a url field
func TargetURL(url string) Field {
	return Field{Key: "url", Value: url}
}

// Component creates a component field
func Component(name string) Field {
	return Field{Key: "component", Value: name}
}

// Status creates an HTTP status field
func Status(status int) Field {
	return Field{Key: "status", Value: status}
}

// Method creates an HTTP method field
func Method(method string) Field {
	return Field{Key: "method", Value: method}
}

// Path creates an HTTP path field
func Path(path string) Field {
	return Field{Key: "path", Value: path}
}

// RemoteIP creates a remote_ip field
func RemoteIP(ip string) Field {
	return Field{Key: "remote_ip", Value: ip}
}

// Operation creates an operation field
func Operation(op string) Field {
	return Field{Key: "operation", Value: op}
}
