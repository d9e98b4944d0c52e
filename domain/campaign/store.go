package campaign

import (
	"encoding/json"
	"sync"

	"github.com/echomail/echomail/config"
	"github.com/echomail/echomail/domain/message"
)

// Store is the persistence port for campaigns. The concrete backend stays
// swappable; the sqlx implementation below is the production one.
type Store interface {
	Create(c *Campaign) (int64, error)
	ListByUser(userEmail string) ([]Campaign, error)
	GetByID(id int64, userEmail string) (*Campaign, error)
	Delete(id int64, userEmail string) error
	Subscribe(userEmail string) (<-chan Campaign, func())
}

// SQLStore persists campaigns through the shared sqlx pool and fans out
// created records to in-process subscribers so list views update without
// polling.
type SQLStore struct {
	mu   sync.Mutex
	subs map[string][]chan Campaign
}

func NewStore() *SQLStore {
	return &SQLStore{subs: make(map[string][]chan Campaign)}
}

func (s *SQLStore) Create(c *Campaign) (int64, error) {
	res, err := config.DB.Exec(`
		INSERT INTO campaigns (
			user_email, subject, content, recipients,
			sent, failed, status, campaign_type,
			attachments, send_results, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())`,
		c.UserEmail, c.Subject, c.Content, c.Recipients,
		c.Sent, c.Failed, c.Status, c.CampaignType,
		c.Attachments, c.SendResults)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	c.ID = id

	s.notify(*c)
	return id, nil
}

func (s *SQLStore) ListByUser(userEmail string) ([]Campaign, error) {
	var campaigns []Campaign
	err := config.DB.Select(&campaigns, `
		SELECT id, user_email, subject, content, recipients,
		       sent, failed, status, campaign_type,
		       attachments, send_results, created_at
		FROM campaigns
		WHERE user_email = ?
		ORDER BY created_at DESC`, userEmail)
	return campaigns, err
}

func (s *SQLStore) GetByID(id int64, userEmail string) (*Campaign, error) {
	var c Campaign
	err := config.DB.Get(&c, `
		SELECT id, user_email, subject, content, recipients,
		       sent, failed, status, campaign_type,
		       attachments, send_results, created_at
		FROM campaigns
		WHERE id = ? AND user_email = ?`, id, userEmail)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *SQLStore) Delete(id int64, userEmail string) error {
	_, err := config.DB.Exec("DELETE FROM campaigns WHERE id = ? AND user_email = ?", id, userEmail)
	return err
}

// Subscribe returns a channel receiving campaigns created for userEmail.
// The returned func unsubscribes; a slow consumer drops notifications
// rather than blocking the send path.
func (s *SQLStore) Subscribe(userEmail string) (<-chan Campaign, func()) {
	ch := make(chan Campaign, 8)

	s.mu.Lock()
	s.subs[userEmail] = append(s.subs[userEmail], ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		chans := s.subs[userEmail]
		for i, sub := range chans {
			if sub == ch {
				s.subs[userEmail] = append(chans[:i], chans[i+1:]...)
				close(ch)
				break
			}
		}
	}
	return ch, cancel
}

func (s *SQLStore) notify(c Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs[c.UserEmail] {
		select {
		case ch <- c:
		default:
		}
	}
}

func (c *Campaign) results() []message.SendResult {
	if !c.SendResults.Valid || c.SendResults.String == "" {
		return nil
	}
	var results []message.SendResult
	if err := json.Unmarshal([]byte(c.SendResults.String), &results); err != nil {
		return nil
	}
	return results
}
