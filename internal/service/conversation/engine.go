// Package conversation drives the multi-turn dialogue that collects field
// values and turns a template into a delivered document.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/autopdf/backend/internal/fieldname"
	"github.com/autopdf/backend/internal/metrics"
	"github.com/autopdf/backend/internal/model/form"
	"github.com/autopdf/backend/internal/service/ledger"
	"github.com/autopdf/backend/internal/service/retention"
	"github.com/autopdf/backend/internal/storage"
)

// ErrDeliveryFailed marks an artifact that exists but could not be pushed to
// its owner.
var ErrDeliveryFailed = errors.New("document delivery failed")

// FieldModel abstracts template field extraction and filling.
type FieldModel interface {
	ExtractFields(templateBytes []byte) ([]string, error)
	Fill(templateBytes []byte, values map[string]string) ([]byte, error)
}

// Deliverer pushes a generated document to its owner over the chat transport.
type Deliverer interface {
	SendDocument(ownerID, path, filename, caption string) error
}

const (
	optionUseDefaults = "Use default names"
	optionCustomize   = "Customize names"
	optionOneAtATime  = "One at a time"
	optionAllAtOnce   = "All at once"
	optionResend      = "Resend document"
	optionNewTemplate = "New template"
	optionDone        = "Done"
)

const (
	msgGreeting = "Hi! I'm AutoPDF. I help you fill PDF forms over chat.\n\n" +
		"Send /fill to start filling a template.\nSend /help to see available commands."
	msgHelp = "Here's how to use this bot:\n\n" +
		"/start - Say hello\n" +
		"/fill - Fill a PDF template\n" +
		"/help - Show this help message\n" +
		"/cancel - Cancel the current operation"
	msgUsageHint        = "Send /fill to start filling a template, or /help for the command list."
	msgNoTemplates      = "No templates found. Please add at least one PDF form template."
	msgSelectTemplate   = "Let's fill a PDF form. Please select a template:"
	msgTemplateNotFound = "Sorry, I couldn't find that template."
	msgDownloadFailed   = "Sorry, I couldn't download the template. Please try again later."
	msgNoFields         = "No fillable fields found in this template. Please select a PDF with form fields."
	msgFillMethod       = "How would you like to enter the values?"
	msgChooseField      = "Please choose a field to fill:"
	msgCustomizeHint    = "Send new names as \"field_id: New Name\" lines, or send \"skip\" to keep the current names."
	msgCustomizeReject  = "I couldn't read any \"field_id: New Name\" line. Try again or send \"skip\"."
	msgGenerating       = "All fields are filled. Generating your document..."
	msgGenerationFailed = "Sorry, there was an error generating your document."
	msgCaption          = "Here's your filled document!"
	msgRecorded         = "Your data has been saved."
	msgDeliveryFailed   = "The document was generated, but I couldn't send it to you. Choose 'Resend document' to try again."
	msgResent           = "Sent it again."
	msgNextAction       = "What would you like to do next?"
	msgFarewell         = "Done! Send /fill whenever you need another document."
	msgCancelled        = "Operation cancelled."
)

// Service is the conversation engine: it owns the per-user session registry
// and applies the state machine to each inbound message.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*form.Session

	templates storage.Repository
	model     FieldModel
	resolver  *fieldname.Resolver
	retention *retention.Store
	ledger    *ledger.Ledger
	deliverer Deliverer
	outputDir string
	log       *zap.Logger
}

// NewService wires the engine to its collaborators.
func NewService(templates storage.Repository, model FieldModel, resolver *fieldname.Resolver,
	store *retention.Store, book *ledger.Ledger, deliverer Deliverer, outputDir string, log *zap.Logger) *Service {
	return &Service{
		sessions:  make(map[string]*form.Session),
		templates: templates,
		model:     model,
		resolver:  resolver,
		retention: store,
		ledger:    book,
		deliverer: deliverer,
		outputDir: outputDir,
		log:       log,
	}
}

// HandleMessage advances the user's conversation with one inbound message and
// returns the replies to render. It never fails; every error condition maps to
// a reply and, where the spec demands it, a cleared session.
func (s *Service) HandleMessage(ctx context.Context, userID, text string) []form.Reply {
	text = strings.TrimSpace(text)

	switch strings.ToLower(text) {
	case "/cancel":
		s.clear(userID)
		return replies(msgCancelled)
	case "/start":
		return replies(msgGreeting)
	case "/help":
		return replies(msgHelp)
	case "/fill":
		return s.startFill(ctx, userID)
	}

	sess := s.session(userID)
	if sess == nil {
		return replies(msgUsageHint)
	}

	switch sess.State {
	case form.StateSelectingTemplate:
		return s.handleTemplateChoice(ctx, sess, text)
	case form.StateChoosingFieldNames:
		return s.handleNameChoice(sess, text)
	case form.StateCustomizingFields:
		return s.handleCustomization(sess, text)
	case form.StateChoosingFillMethod:
		return s.handleFillMethod(sess, text)
	case form.StateChoosing:
		return s.handleFieldChoice(sess, text)
	case form.StateTypingReply:
		return s.handleTypedValue(sess, text)
	case form.StateBulkEntry:
		return s.handleBulkEntry(sess, text)
	case form.StateChoosingNextAction:
		return s.handleNextAction(ctx, sess, text)
	default:
		s.log.Error("session in unknown state", zap.String("user", userID), zap.Stringer("state", sess.State))
		s.clear(userID)
		return replies(msgUsageHint)
	}
}

// startFill opens a fresh session, discarding any prior incomplete one for
// the same user.
func (s *Service) startFill(ctx context.Context, userID string) []form.Reply {
	infos, err := s.templates.ListTemplates(ctx)
	if err != nil {
		s.log.Warn("template listing failed", zap.Error(err))
		s.clear(userID)
		return replies(msgNoTemplates)
	}
	if len(infos) == 0 {
		s.clear(userID)
		return replies(msgNoTemplates)
	}

	s.put(form.NewSession(userID, infos))

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return []form.Reply{{Text: msgSelectTemplate, Options: names}}
}

func (s *Service) handleTemplateChoice(ctx context.Context, sess *form.Session, text string) []form.Reply {
	var chosen *form.TemplateInfo
	for i := range sess.Offered {
		if sess.Offered[i].Name == text || sess.Offered[i].ID == text {
			chosen = &sess.Offered[i]
			break
		}
	}
	if chosen == nil {
		s.clear(sess.UserID)
		return replies(msgTemplateNotFound)
	}

	data, err := s.templates.Download(ctx, chosen.ID)
	if err != nil {
		s.log.Warn("template download failed", zap.String("template", chosen.ID), zap.Error(err))
		s.clear(sess.UserID)
		return replies(msgDownloadFailed)
	}

	fields, err := s.model.ExtractFields(data)
	if err != nil || len(fields) == 0 {
		if err != nil {
			s.log.Warn("field extraction failed", zap.String("template", chosen.ID), zap.Error(err))
		}
		s.clear(sess.UserID)
		return replies(msgNoFields)
	}

	sess.Template = form.Template{Info: *chosen, Fields: fields, Bytes: data}
	sess.Mapping = make(map[string]string, len(fields))
	for _, id := range fields {
		sess.Mapping[id] = s.resolver.Resolve(id, chosen.ID)
	}
	sess.FormData = make(map[string]string, len(fields))

	// Templates that ship their own name table skip the review step.
	if s.resolver.HasOverrides(chosen.ID) {
		sess.State = form.StateChoosingFillMethod
		return []form.Reply{
			{Text: s.selectionSummary(sess)},
			fillMethodReply(),
		}
	}

	sess.State = form.StateChoosingFieldNames
	return []form.Reply{{
		Text:    s.selectionSummary(sess) + "\n\nUse the default field names or rename them?",
		Options: []string{optionUseDefaults, optionCustomize},
	}}
}

func (s *Service) selectionSummary(sess *form.Session) string {
	return fmt.Sprintf("Selected template: %s\n\nFound %d fillable fields:\n%s",
		sess.Template.Info.Name, len(sess.Template.Fields), mappingList(sess))
}

func (s *Service) handleNameChoice(sess *form.Session, text string) []form.Reply {
	switch {
	case strings.EqualFold(text, optionUseDefaults):
		sess.State = form.StateChoosingFillMethod
		return []form.Reply{fillMethodReply()}
	case strings.EqualFold(text, optionCustomize):
		sess.State = form.StateCustomizingFields
		return replies(msgCustomizeHint)
	default:
		return []form.Reply{{
			Text:    "Use the default field names or rename them?",
			Options: []string{optionUseDefaults, optionCustomize},
		}}
	}
}

func (s *Service) handleCustomization(sess *form.Session, text string) []form.Reply {
	if strings.EqualFold(text, "skip") {
		sess.State = form.StateChoosingFillMethod
		return []form.Reply{fillMethodReply()}
	}

	updated := 0
	for _, line := range strings.Split(text, "\n") {
		id, name, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		id = strings.TrimSpace(id)
		name = strings.TrimSpace(name)
		if id == "" || name == "" {
			continue
		}
		if _, known := sess.Mapping[id]; !known {
			continue
		}
		sess.Mapping[id] = name
		updated++
	}
	if updated == 0 {
		return replies(msgCustomizeReject)
	}

	sess.State = form.StateChoosingFillMethod
	return []form.Reply{
		{Text: "Updated field names:\n" + mappingList(sess)},
		fillMethodReply(),
	}
}

func (s *Service) handleFillMethod(sess *form.Session, text string) []form.Reply {
	switch {
	case strings.EqualFold(text, optionOneAtATime):
		sess.State = form.StateChoosing
		return []form.Reply{chooseFieldReply(sess)}
	case strings.EqualFold(text, optionAllAtOnce):
		sess.State = form.StateBulkEntry
		return []form.Reply{bulkPromptReply(sess)}
	default:
		return []form.Reply{fillMethodReply()}
	}
}

func (s *Service) handleFieldChoice(sess *form.Session, text string) []form.Reply {
	id, ok := sess.FieldByText(text)
	if !ok {
		return []form.Reply{chooseFieldReply(sess)}
	}
	sess.Pending = id
	sess.State = form.StateTypingReply
	return replies(fmt.Sprintf("Please enter the value for '%s':", sess.Mapping[id]))
}

func (s *Service) handleTypedValue(sess *form.Session, text string) []form.Reply {
	field := sess.Pending
	if field == "" {
		sess.State = form.StateChoosing
		return []form.Reply{chooseFieldReply(sess)}
	}

	sess.Record(field, text)
	sess.Pending = ""

	if sess.IsComplete() {
		return s.finish(sess)
	}

	sess.State = form.StateChoosing
	return []form.Reply{{
		Text: fmt.Sprintf("'%s' set to '%s'.\n\nWhat field would you like to fill next?",
			sess.Mapping[field], text),
		Options: displayNames(sess, sess.RemainingFields()),
	}}
}

func (s *Service) handleBulkEntry(sess *form.Session, text string) []form.Reply {
	values, _ := ParseBulk(text, sess.Template.Fields, sess.Mapping)
	for id, value := range values {
		sess.Record(id, value)
	}

	if !sess.IsComplete() {
		missing := displayNames(sess, sess.RemainingFields())
		return replies("I couldn't find values for:\n- " + strings.Join(missing, "\n- ") +
			"\n\nPlease resend the block with every remaining field filled in.")
	}
	return s.finish(sess)
}

func (s *Service) handleNextAction(ctx context.Context, sess *form.Session, text string) []form.Reply {
	switch {
	case strings.EqualFold(text, optionResend):
		return s.resend(ctx, sess)
	case strings.EqualFold(text, optionDone):
		s.clear(sess.UserID)
		return replies(msgFarewell)
	default:
		// Anything else, including the explicit menu entry, starts over.
		return s.startFill(ctx, sess.UserID)
	}
}

func (s *Service) resend(ctx context.Context, sess *form.Session) []form.Reply {
	if sess.Artifact == nil {
		return s.startFill(ctx, sess.UserID)
	}
	if _, err := os.Stat(sess.Artifact.Path); err != nil {
		// The artifact is gone; retrying the same path cannot recover it.
		s.log.Warn("artifact missing on resend",
			zap.String("user", sess.UserID), zap.String("path", sess.Artifact.Path))
		return s.startFill(ctx, sess.UserID)
	}

	if err := s.deliverer.SendDocument(sess.UserID, sess.Artifact.Path, sess.Artifact.Filename, msgCaption); err != nil {
		metrics.DeliveryFailures.Inc()
		s.log.Warn("resend failed", zap.String("user", sess.UserID), zap.Error(err))
		return []form.Reply{{Text: msgDeliveryFailed}, nextActionReply()}
	}
	return []form.Reply{{Text: msgResent}, nextActionReply()}
}

// finish fills the template, persists and records the artifact, attempts
// delivery and moves the session to the post-completion menu. A generation
// failure clears the session; a delivery failure does not, because the
// artifact exists and the resend menu entry remains the escape path.
func (s *Service) finish(sess *form.Session) []form.Reply {
	out := []form.Reply{{Text: msgGenerating}}

	filled, err := s.model.Fill(sess.Template.Bytes, sess.FormData)
	if err != nil {
		return s.generationFailed(sess, out, fmt.Errorf("fill template: %w", err))
	}

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return s.generationFailed(sess, out, fmt.Errorf("create output dir: %w", err))
	}
	filename := artifactFilename(sess.Template.Info.Name, time.Now())
	path := filepath.Join(s.outputDir, filename)
	if err := os.WriteFile(path, filled, 0o644); err != nil {
		return s.generationFailed(sess, out, fmt.Errorf("write artifact: %w", err))
	}

	rec, err := s.retention.Store(sess.UserID, path, filename)
	if err != nil {
		return s.generationFailed(sess, out, fmt.Errorf("record artifact: %w", err))
	}
	sess.Artifact = &form.ArtifactRef{RecordID: rec.ID, Path: path, Filename: filename}
	metrics.DocumentsGenerated.Inc()
	s.log.Info("document generated",
		zap.String("user", sess.UserID),
		zap.String("template", sess.Template.Info.ID),
		zap.String("artifact", filename))

	// The ledger is a best-effort side record; a failed append never blocks
	// the document the user is waiting for.
	if sub, err := s.ledger.Append(sess.UserID, sess.Template.Info, sess.FormData); err != nil {
		s.log.Warn("submission ledger append failed", zap.String("user", sess.UserID), zap.Error(err))
	} else {
		s.log.Info("submission recorded",
			zap.String("user", sess.UserID), zap.String("submission", sub.ID))
		out = append(out, form.Reply{Text: msgRecorded})
	}

	if err := s.deliverer.SendDocument(sess.UserID, path, filename, msgCaption); err != nil {
		metrics.DeliveryFailures.Inc()
		s.log.Warn("document delivery failed", zap.String("user", sess.UserID), zap.Error(err))
		out = append(out, form.Reply{Text: msgDeliveryFailed})
	}

	sess.State = form.StateChoosingNextAction
	return append(out, nextActionReply())
}

func (s *Service) generationFailed(sess *form.Session, out []form.Reply, err error) []form.Reply {
	metrics.GenerationFailures.Inc()
	s.log.Error("document generation failed", zap.String("user", sess.UserID), zap.Error(err))
	s.clear(sess.UserID)
	return append(out, form.Reply{Text: msgGenerationFailed})
}

func (s *Service) session(userID string) *form.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[userID]
}

func (s *Service) put(sess *form.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.UserID]; !ok {
		metrics.SessionsActive.Inc()
	}
	s.sessions[sess.UserID] = sess
}

func (s *Service) clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; ok {
		delete(s.sessions, userID)
		metrics.SessionsActive.Dec()
	}
}

func artifactFilename(templateName string, now time.Time) string {
	return fmt.Sprintf("filled_%s_%s.pdf",
		strings.ReplaceAll(templateName, " ", "_"),
		now.Format("20060102_150405"))
}

func mappingList(sess *form.Session) string {
	lines := make([]string, 0, len(sess.Template.Fields))
	for _, id := range sess.Template.Fields {
		lines = append(lines, fmt.Sprintf("- %s: %s", id, sess.Mapping[id]))
	}
	return strings.Join(lines, "\n")
}

func displayNames(sess *form.Session, ids []string) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = sess.Mapping[id]
	}
	return names
}

func fillMethodReply() form.Reply {
	return form.Reply{Text: msgFillMethod, Options: []string{optionOneAtATime, optionAllAtOnce}}
}

func chooseFieldReply(sess *form.Session) form.Reply {
	return form.Reply{Text: msgChooseField, Options: displayNames(sess, sess.RemainingFields())}
}

func bulkPromptReply(sess *form.Session) form.Reply {
	lines := make([]string, 0, len(sess.Template.Fields))
	for _, id := range sess.Template.Fields {
		lines = append(lines, sess.Mapping[id]+": "+Placeholder)
	}
	return form.Reply{Text: "Fill in the block below and send it back:\n\n" + strings.Join(lines, "\n")}
}

func nextActionReply() form.Reply {
	return form.Reply{Text: msgNextAction, Options: []string{optionResend, optionNewTemplate, optionDone}}
}

func replies(text string) []form.Reply {
	return []form.Reply{{Text: text}}
}
