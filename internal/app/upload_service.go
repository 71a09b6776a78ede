package app

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"raterocket/internal/ai"
	"raterocket/internal/model"
)

// UploadOutcome labels the terminal result of a document intake turn.
type UploadOutcome string

const (
	OutcomeEmptyDocument UploadOutcome = "empty_document"
	OutcomeNotRelevant   UploadOutcome = "not_relevant"
	OutcomeContactAdmin  UploadOutcome = "contact_admin"
	OutcomeAlreadyExists UploadOutcome = "already_exists"
	OutcomeAccepted      UploadOutcome = "accepted"
)

const (
	emptyDocumentMessage  = "The document is empty"
	notRelevantMessage    = "The document is not relevant"
	contactAdminMessage   = "Similar document already exists. Contact admin for more information."
	alreadyExistsMessage  = "Similar document already exists."
	uploadedDocumentTurn  = "Uploaded document"
)

// UploadService is the intake orchestrator: it parses an upload,
// consults the extraction gateway, applies the dedup and consent
// rules, and advances the session state.
type UploadService struct {
	sessionStore SessionStore
	docStore     DocumentStore
	cache        SessionCache
	gateway      ExtractionGateway
	publisher    MirrorPublisher
	parse        DocumentParser
	log          *zap.Logger
}

type IngestInput struct {
	UserID    uint
	SessionID string // empty starts a new session
	Content   []byte
	Filename  string
}

type UploadResult struct {
	Outcome       UploadOutcome
	SessionID     string
	DocumentID    string // empty when no document is reported to the caller
	ExtractedInfo *model.LoanFields
	Message       string
	Confidence    float64
	Consent       bool
	IsUpdated     bool
}

type RefineInput struct {
	SessionID string
	Message   string
}

// RefineResult reports a refinement turn. LedgerPersisted is false
// both when consent was withheld and when the ledger write soft-failed;
// Consent distinguishes the two.
type RefineResult struct {
	SessionID       string
	Message         string
	ExtractedInfo   *model.LoanFields
	Consent         bool
	LedgerPersisted bool
}

func NewUploadService(
	sessionStore SessionStore,
	docStore DocumentStore,
	cache SessionCache,
	gateway ExtractionGateway,
	publisher MirrorPublisher,
	parse DocumentParser,
	log *zap.Logger,
) *UploadService {
	return &UploadService{
		sessionStore: sessionStore,
		docStore:     docStore,
		cache:        cache,
		gateway:      gateway,
		publisher:    publisher,
		parse:        parse,
		log:          log,
	}
}

// IngestDocument runs the upload intake turn.
func (s *UploadService) IngestDocument(ctx context.Context, input IngestInput) (*UploadResult, error) {
	if input.UserID == 0 || input.Filename == "" {
		return nil, ErrInvalidInput
	}

	// Session creation is deferred until the outcome is known; blocked
	// and empty uploads must not leave half-written sessions behind.
	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	text, err := s.parse(input.Content, input.Filename)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return &UploadResult{
			Outcome:   OutcomeEmptyDocument,
			SessionID: sessionID,
			Message:   emptyDocumentMessage,
		}, nil
	}

	relevance, err := s.gateway.CheckRelevance(ctx, text)
	if err != nil {
		return nil, err
	}
	if relevance.DocumentType == ai.DocumentTypeIrrelevant {
		return &UploadResult{
			Outcome:    OutcomeNotRelevant,
			SessionID:  sessionID,
			Message:    notRelevantMessage,
			Confidence: relevance.Confidence,
		}, nil
	}

	extraction, err := s.gateway.ExtractFields(ctx, text)
	if err != nil {
		return nil, err
	}
	documentID := uuid.NewString()

	similar, err := s.docStore.FindSimilar(extraction.Fields)
	if err != nil {
		return nil, err
	}

	var owned *model.Session
	for _, match := range similar {
		session, err := s.sessionStore.GetByUserAndDocumentID(input.UserID, match.DocumentID)
		if err != nil {
			return nil, err
		}
		if session != nil {
			owned = session
			break
		}
	}

	if len(similar) > 0 && owned == nil {
		// Blocked duplicate. The session row still records the attempt
		// with the internally generated document id, but the caller
		// gets no document.
		if err := s.recordUploadSession(ctx, sessionID, documentID, input.UserID, extraction, contactAdminMessage); err != nil {
			return nil, err
		}
		return &UploadResult{
			Outcome:   OutcomeContactAdmin,
			SessionID: sessionID,
			Message:   contactAdminMessage,
		}, nil
	}

	if owned != nil {
		// The user already holds a session on the matched document.
		// Echo that session's identifiers; the freshly generated pair
		// is discarded for response purposes.
		if err := s.recordUploadSession(ctx, sessionID, documentID, input.UserID, extraction, alreadyExistsMessage); err != nil {
			return nil, err
		}
		return &UploadResult{
			Outcome:    OutcomeAlreadyExists,
			SessionID:  owned.ID,
			DocumentID: owned.DocumentID,
			Message:    alreadyExistsMessage,
		}, nil
	}

	// Consent gates the ledger commit; without it the fields only live
	// in the session cache as previous info.
	if extraction.Consent {
		doc := model.NewLoanDocument(documentID, input.UserID, extraction.Fields)
		doc.DocumentType = relevance.DocumentType
		doc.SetMetadata(map[string]any{"filename": input.Filename})
		if err := s.docStore.Insert(doc); err != nil {
			return nil, err
		}
	}

	if err := s.cache.SavePreviousInfo(ctx, sessionID, extraction.Fields); err != nil {
		return nil, err
	}
	if err := s.cache.SaveDocumentID(ctx, sessionID, documentID); err != nil {
		return nil, err
	}
	if err := s.recordUploadSession(ctx, sessionID, documentID, input.UserID, extraction, extraction.Message); err != nil {
		return nil, err
	}

	return &UploadResult{
		Outcome:       OutcomeAccepted,
		SessionID:     sessionID,
		DocumentID:    documentID,
		ExtractedInfo: extraction.Fields,
		Message:       extraction.Message,
		Consent:       extraction.Consent,
		IsUpdated:     extraction.IsUpdated,
	}, nil
}

// RefineDocument runs a follow-up turn on an upload session, merging
// the message into the previously extracted fields.
func (s *UploadService) RefineDocument(ctx context.Context, input RefineInput) (*RefineResult, error) {
	if input.SessionID == "" || strings.TrimSpace(input.Message) == "" {
		return nil, ErrInvalidInput
	}

	conversation, err := s.cache.GetConversation(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	previous, err := s.cache.GetPreviousInfo(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	documentID, err := s.cache.GetDocumentID(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	refinement, err := s.gateway.ExtractFieldsIncremental(ctx, input.Message, conversation, previous)
	if err != nil {
		return nil, err
	}

	// Best effort: a ledger failure here must not abort the turn, the
	// conversation still advances.
	persisted := false
	if refinement.Consent && documentID != "" {
		if err := s.commitRefinement(documentID, refinement.Fields); err != nil {
			s.log.Error("refinement ledger write failed",
				zap.String("session_id", input.SessionID),
				zap.String("document_id", documentID),
				zap.Error(err))
		} else {
			persisted = true
		}
	}

	conversation = append(conversation,
		model.ChatTurn{Role: "user", Content: input.Message},
		model.ChatTurn{Role: "assistant", Content: refinement.Message},
	)
	if err := s.cache.SaveConversation(ctx, input.SessionID, conversation); err != nil {
		return nil, err
	}
	// Empty title keeps the stored one untouched.
	if err := s.publisher.Publish(ctx, model.ConversationSnapshot{
		SessionID: input.SessionID,
		Messages:  conversation,
	}); err != nil {
		s.log.Error("refinement mirror enqueue failed",
			zap.String("session_id", input.SessionID),
			zap.Error(err))
	}

	if !refinement.Fields.Empty() {
		if err := s.cache.SavePreviousInfo(ctx, input.SessionID, refinement.Fields); err != nil {
			return nil, err
		}
		if err := s.sessionStore.UpdateDocumentInfo(input.SessionID, refinement.Fields); err != nil {
			return nil, err
		}
	}

	return &RefineResult{
		SessionID:       input.SessionID,
		Message:         refinement.Message,
		ExtractedInfo:   refinement.Fields,
		Consent:         refinement.Consent,
		LedgerPersisted: persisted,
	}, nil
}

func (s *UploadService) commitRefinement(documentID string, fields *model.LoanFields) error {
	existing, err := s.docStore.GetByDocumentID(documentID)
	if err != nil {
		return err
	}
	if existing == nil {
		return s.docStore.Insert(model.NewLoanDocument(documentID, 0, fields))
	}
	existing.ApplyFields(fields)
	return s.docStore.Update(existing)
}

// recordUploadSession writes the turn's fixed two-message exchange to
// the cache, creates the upload session, and queues the ledger mirror.
func (s *UploadService) recordUploadSession(ctx context.Context, sessionID, documentID string, userID uint, extraction *ai.ExtractionResult, assistantText string) error {
	conversation := []model.ChatTurn{
		{Role: "user", Content: uploadedDocumentTurn},
		{Role: "assistant", Content: assistantText},
	}
	if err := s.cache.SaveConversation(ctx, sessionID, conversation); err != nil {
		return err
	}

	// The caller may reuse an existing session id, so this is an
	// upsert, not a create.
	session := &model.Session{
		ID:         sessionID,
		UserID:     userID,
		Type:       model.SessionTypeUpload,
		DocumentID: documentID,
	}
	session.SetDocumentFields(extraction.Fields)
	if err := s.sessionStore.Upsert(session); err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, model.ConversationSnapshot{
		SessionID: sessionID,
		Messages:  conversation,
		Title:     extraction.ChatTitle,
	}); err != nil {
		return ErrMirrorEnqueue
	}
	return nil
}
