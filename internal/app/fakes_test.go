package app

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"raterocket/internal/ai"
	"raterocket/internal/model"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

type fakeGateway struct {
	intent     *ai.IntentResult
	intentErr  error
	query      string
	reply      *ai.GeneratedReply
	replyErr   error
	relevance  *ai.RelevanceResult
	extraction *ai.ExtractionResult
	refinement *ai.RefinementResult
	refineErr  error
}

func (g *fakeGateway) ClassifyIntent(ctx context.Context, message string, history []model.ChatTurn) (*ai.IntentResult, error) {
	return g.intent, g.intentErr
}

func (g *fakeGateway) ExtractQuery(ctx context.Context, message string, history []model.ChatTurn) (string, error) {
	return g.query, nil
}

func (g *fakeGateway) GenerateResponse(ctx context.Context, intent, historyText, contextText string) (*ai.GeneratedReply, error) {
	return g.reply, g.replyErr
}

func (g *fakeGateway) CheckRelevance(ctx context.Context, text string) (*ai.RelevanceResult, error) {
	return g.relevance, nil
}

func (g *fakeGateway) ExtractFields(ctx context.Context, text string) (*ai.ExtractionResult, error) {
	return g.extraction, nil
}

func (g *fakeGateway) ExtractFieldsIncremental(ctx context.Context, message string, history []model.ChatTurn, previous *model.LoanFields) (*ai.RefinementResult, error) {
	return g.refinement, g.refineErr
}

type fakeCache struct {
	conversations map[string][]model.ChatTurn
	previousInfo  map[string]*model.LoanFields
	documentIDs   map[string]string
	saveErr       error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		conversations: map[string][]model.ChatTurn{},
		previousInfo:  map[string]*model.LoanFields{},
		documentIDs:   map[string]string{},
	}
}

func (c *fakeCache) GetConversation(ctx context.Context, sessionID string) ([]model.ChatTurn, error) {
	return c.conversations[sessionID], nil
}

func (c *fakeCache) SaveConversation(ctx context.Context, sessionID string, turns []model.ChatTurn) error {
	if c.saveErr != nil {
		return c.saveErr
	}
	c.conversations[sessionID] = turns
	return nil
}

func (c *fakeCache) GetPreviousInfo(ctx context.Context, sessionID string) (*model.LoanFields, error) {
	return c.previousInfo[sessionID], nil
}

func (c *fakeCache) SavePreviousInfo(ctx context.Context, sessionID string, fields *model.LoanFields) error {
	c.previousInfo[sessionID] = fields
	return nil
}

func (c *fakeCache) GetDocumentID(ctx context.Context, sessionID string) (string, error) {
	return c.documentIDs[sessionID], nil
}

func (c *fakeCache) SaveDocumentID(ctx context.Context, sessionID, documentID string) error {
	c.documentIDs[sessionID] = documentID
	return nil
}

type fakeSessionStore struct {
	sessions     map[string]*model.Session
	docInfoSaves int
	titleErr     error
	feedbackErr  error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[string]*model.Session{}}
}

func (s *fakeSessionStore) Create(session *model.Session) error {
	if _, exists := s.sessions[session.ID]; exists {
		return errors.New("duplicate session id")
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeSessionStore) Upsert(session *model.Session) error {
	if existing, exists := s.sessions[session.ID]; exists {
		existing.Type = session.Type
		existing.DocumentID = session.DocumentID
		existing.DocumentInfo = session.DocumentInfo
		return nil
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeSessionStore) GetByUserAndID(userID uint, sessionID string) (*model.Session, error) {
	session, ok := s.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, nil
	}
	return session, nil
}

func (s *fakeSessionStore) GetByUserAndDocumentID(userID uint, documentID string) (*model.Session, error) {
	for _, session := range s.sessions {
		if session.UserID == userID && session.DocumentID == documentID {
			return session, nil
		}
	}
	return nil, nil
}

func (s *fakeSessionStore) ListByUser(userID uint, limit int) ([]model.Session, error) {
	var out []model.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			out = append(out, *session)
		}
	}
	return out, nil
}

func (s *fakeSessionStore) ReplaceMessages(sessionID string, turns []model.ChatTurn, title string) error {
	return nil
}

func (s *fakeSessionStore) UpdateDocumentInfo(sessionID string, fields *model.LoanFields) error {
	s.docInfoSaves++
	if session, ok := s.sessions[sessionID]; ok {
		session.SetDocumentFields(fields)
	}
	return nil
}

func (s *fakeSessionStore) UpdateTitle(userID uint, sessionID, title string) error {
	if s.titleErr != nil {
		return s.titleErr
	}
	session, ok := s.sessions[sessionID]
	if !ok || session.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	session.Title = title
	return nil
}

func (s *fakeSessionStore) UpdateMessageFeedback(userID uint, sessionID string, index int, feedback string, rating int) error {
	if s.feedbackErr != nil {
		return s.feedbackErr
	}
	session, ok := s.sessions[sessionID]
	if !ok || session.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	if index >= len(session.Messages) {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type fakeDocStore struct {
	docs       map[string]*model.LoanDocument
	similar    []model.LoanDocument
	inserted   []*model.LoanDocument
	updated    []*model.LoanDocument
	searchText string
	insertErr  error
	updateErr  error
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: map[string]*model.LoanDocument{}}
}

func (d *fakeDocStore) Insert(doc *model.LoanDocument) error {
	if d.insertErr != nil {
		return d.insertErr
	}
	d.inserted = append(d.inserted, doc)
	d.docs[doc.DocumentID] = doc
	return nil
}

func (d *fakeDocStore) Update(doc *model.LoanDocument) error {
	if d.updateErr != nil {
		return d.updateErr
	}
	d.updated = append(d.updated, doc)
	d.docs[doc.DocumentID] = doc
	return nil
}

func (d *fakeDocStore) GetByDocumentID(documentID string) (*model.LoanDocument, error) {
	return d.docs[documentID], nil
}

func (d *fakeDocStore) FindSimilar(fields *model.LoanFields) ([]model.LoanDocument, error) {
	return d.similar, nil
}

func (d *fakeDocStore) Search(query string) (string, error) {
	return d.searchText, nil
}

func (d *fakeDocStore) SoftDelete(documentID string) error {
	delete(d.docs, documentID)
	return nil
}

type fakePublisher struct {
	published []model.ConversationSnapshot
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, snapshot model.ConversationSnapshot) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, snapshot)
	return nil
}

type fakeUserStore struct {
	users  map[string]*model.User
	nextID uint
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*model.User{}, nextID: 1}
}

func (s *fakeUserStore) Create(user *model.User) error {
	if _, exists := s.users[user.Email]; exists {
		return errors.New("duplicate email")
	}
	user.ID = s.nextID
	s.nextID++
	s.users[user.Email] = user
	return nil
}

func (s *fakeUserStore) GetByEmail(email string) (*model.User, error) {
	return s.users[email], nil
}

func (s *fakeUserStore) GetByID(id uint) (*model.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) UpdateName(id uint, name string) error {
	for _, user := range s.users {
		if user.ID == id {
			user.Name = name
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeOTPStore struct {
	codes map[string]string
	ttl   time.Duration
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{codes: map[string]string{}, ttl: 5 * time.Minute}
}

func (s *fakeOTPStore) Create(ctx context.Context, email string) (string, time.Time, error) {
	s.codes[email] = "123456"
	return "123456", time.Now().Add(s.ttl), nil
}

func (s *fakeOTPStore) Extend(ctx context.Context, email string) (string, time.Time, error) {
	return s.Create(ctx, email)
}

func (s *fakeOTPStore) Verify(ctx context.Context, email, otp string) (bool, error) {
	stored, ok := s.codes[email]
	if !ok || stored != otp {
		return false, nil
	}
	delete(s.codes, email)
	return true, nil
}

func (s *fakeOTPStore) TTL() time.Duration {
	return s.ttl
}

type fakeSender struct {
	sent []string
	err  error
}

func (s *fakeSender) SendOTP(toEmail, otp string, expireMinutes int) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, toEmail)
	return nil
}
