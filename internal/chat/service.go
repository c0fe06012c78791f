package chat

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lab-report-ai/internal/i18n"
	"lab-report-ai/internal/platform/apperr"
	"lab-report-ai/internal/platform/metrics"
)

// Gateway is the remote language model.
type Gateway interface {
	Converse(ctx context.Context, history []Turn, userText string) (string, error)
}

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, lang i18n.Language) (string, error)
}

// Notifier tells the clinic about confirmed bookings.
type Notifier interface {
	SendMessage(chatID int64, text string) error
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

const (
	hospitalCardDelay = 500 * time.Millisecond
	summaryDelay      = 300 * time.Millisecond
)

type Options struct {
	// TurnTimeout bounds one gateway call. Zero means no extra bound.
	TurnTimeout  time.Duration
	Notifier     Notifier
	ClinicChatID int64
	Scheduler    Scheduler
	Now          func() time.Time
}

type Service struct {
	repo        Repository
	gateway     Gateway
	transcriber Transcriber
	responder   *Responder
	hub         *Hub
	logger      zerolog.Logger

	notifier     Notifier
	clinicChatID int64
	turnTimeout  time.Duration
	scheduler    Scheduler
	now          func() time.Time

	locks [lockStripes]sync.Mutex
}

func NewService(repo Repository, gateway Gateway, transcriber Transcriber, hub *Hub, logger zerolog.Logger, opts Options) *Service {
	s := &Service{
		repo:         repo,
		gateway:      gateway,
		transcriber:  transcriber,
		responder:    NewResponder(),
		hub:          hub,
		logger:       logger.With().Str("component", "chat").Logger(),
		notifier:     opts.Notifier,
		clinicChatID: opts.ClinicChatID,
		turnTimeout:  opts.TurnTimeout,
		scheduler:    opts.Scheduler,
		now:          opts.Now,
	}
	if s.scheduler == nil {
		s.scheduler = timerScheduler{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// lockStripes bounds the session locks. Sessions sharing a stripe only
// serialize with each other; no operation holds two session locks.
const lockStripes = 64

func (s *Service) lock(id uuid.UUID) func() {
	mu := &s.locks[lockStripe(id)]
	mu.Lock()
	return mu.Unlock
}

func lockStripe(id uuid.UUID) uint32 {
	h := fnv.New32a()
	h.Write(id[:])
	return h.Sum32() % lockStripes
}

func (s *Service) Start(ctx context.Context, owner string, lang i18n.Language) (*Session, error) {
	now := s.now()
	sess := &Session{
		ID:        uuid.New(),
		Owner:     owner,
		Language:  lang,
		State:     StateIdle,
		History:   []Turn{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	sess.Messages = []Message{s.welcome(lang)}
	if err := s.repo.Save(ctx, sess); err != nil {
		return nil, apperr.Wrap(err, "failed to create session")
	}
	s.logger.Info().Str("session_id", sess.ID.String()).Str("language", string(lang)).Msg("session started")
	return sess, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.repo.GetByID(ctx, id)
}

// Submit runs one conversational turn. The gateway is called without
// holding the session lock; the session sits in awaiting_ai_response
// meanwhile so a second submission is refused.
func (s *Service) Submit(ctx context.Context, id uuid.UUID, text string) (*Session, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("message text is required", nil)
	}

	unlock := s.lock(id)
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		unlock()
		return nil, err
	}
	if sess.State == StateAwaiting {
		unlock()
		return nil, apperr.Conflict("a reply is still being prepared")
	}
	userMsg := s.newMessage(SenderUser, text, nil)
	sess.Messages = append(sess.Messages, userMsg)
	sess.State = StateAwaiting
	if err := s.save(ctx, sess); err != nil {
		unlock()
		return nil, err
	}
	history := append([]Turn(nil), sess.History...)
	lang := sess.Language
	pending := sess
	unlock()

	s.publish(sess, EventMessageAdded, &userMsg)
	s.publish(sess, EventStateChanged, nil)

	reply, source := s.converse(ctx, history, text, lang)

	unlock = s.lock(id)
	defer unlock()

	// The turn must land even if the caller went away.
	ctx = context.WithoutCancel(ctx)
	sess, err = s.repo.GetByID(ctx, id)
	if err != nil {
		// Nothing else writes a session while it is awaiting a reply, so the
		// copy saved above is still current.
		s.logger.Error().Err(err).Str("session_id", id.String()).Msg("turn: reload failed, using pending copy")
		sess = pending
	}
	sess.History = append(sess.History,
		Turn{Role: RoleUser, Text: text},
		Turn{Role: RoleModel, Text: reply},
	)
	directive, added := s.render(sess, reply)
	s.finishTurn(ctx, sess)

	metrics.RecordChatTurn(source, string(directive))
	for i := range added {
		s.publish(sess, EventMessageAdded, &added[i])
	}
	s.publish(sess, EventStateChanged, nil)
	return sess, nil
}

// finishTurn stores a rendered turn. A turn never fails once the reply is
// in hand, so a failed write is retried once and otherwise only logged.
func (s *Service) finishTurn(ctx context.Context, sess *Session) {
	err := s.save(ctx, sess)
	if err == nil {
		return
	}
	s.logger.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("turn: save failed, retrying")
	if err := s.save(ctx, sess); err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.ID.String()).Str("state", string(sess.State)).Msg("turn: save failed")
	}
}

// converse asks the gateway and falls back to the local responder on any
// failure. It never fails.
func (s *Service) converse(ctx context.Context, history []Turn, text string, lang i18n.Language) (string, string) {
	if s.gateway != nil {
		ctx = context.WithoutCancel(ctx)
		if s.turnTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.turnTimeout)
			defer cancel()
		}
		reply, err := s.gateway.Converse(ctx, history, fmt.Sprintf("[Language: %s] %s", lang, text))
		if err == nil && strings.TrimSpace(reply) != "" {
			return reply, "ai"
		}
		s.logger.Warn().Err(err).Msg("gateway unavailable, answering locally")
	}
	return s.responder.Reply(text, lang), "local"
}

// render turns a raw reply into agent messages and moves the session out
// of awaiting_ai_response. It returns the messages appended now.
func (s *Service) render(sess *Session, reply string) (Directive, []Message) {
	directive, text := ParseReply(reply)
	lang := sess.Language
	start := len(sess.Messages)

	switch directive {
	case DirectiveBooking, DirectiveLab:
		kind, card, prompt := FlowBooking, CardBooking, "chat.bookingPrompt"
		if directive == DirectiveLab {
			kind, card, prompt = FlowLab, CardLabBooking, "chat.labPrompt"
		}
		msg := s.newMessage(SenderAgent, i18n.Lookup(lang, prompt), &Card{Kind: card})
		sess.Messages = append(sess.Messages, msg)
		sess.Flow = newFlow(kind, msg.ID, s.now())
	case DirectiveHospitals:
		if text == "" {
			sess.Messages = append(sess.Messages, s.hospitalMessage(lang, "chat.hospitals"))
			break
		}
		sess.Messages = append(sess.Messages, s.newMessage(SenderAgent, text, nil))
		s.later(sess, hospitalCardDelay, func(cur *Session) *Message {
			msg := s.hospitalMessage(cur.Language, "chat.hospitalsFollowUp")
			cur.Messages = append(cur.Messages, msg)
			return &cur.Messages[len(cur.Messages)-1]
		})
	default:
		sess.Messages = append(sess.Messages, s.newMessage(SenderAgent, reply, nil))
	}

	sess.State = sess.restingState()
	return directive, append([]Message(nil), sess.Messages[start:]...)
}

func (s *Service) hospitalMessage(lang i18n.Language, key string) Message {
	return s.newMessage(SenderAgent, i18n.Lookup(lang, key), &Card{Kind: CardHospitals, Hospitals: Hospitals()})
}

// later schedules apply against the session as it is when the timer fires.
// A reset in between drops the update.
func (s *Service) later(sess *Session, d time.Duration, apply func(*Session) *Message) {
	id, epoch := sess.ID, sess.Epoch
	s.scheduler.AfterFunc(d, func() {
		ctx := context.Background()
		unlock := s.lock(id)
		defer unlock()

		cur, err := s.repo.GetByID(ctx, id)
		if err != nil {
			s.logger.Error().Err(err).Str("session_id", id.String()).Msg("delayed message: load failed")
			return
		}
		if cur.Epoch != epoch {
			return
		}
		msg := apply(cur)
		if err := s.save(ctx, cur); err != nil {
			s.logger.Error().Err(err).Str("session_id", id.String()).Msg("delayed message: save failed")
			return
		}
		if msg != nil {
			s.publish(cur, EventMessageAdded, msg)
		}
		s.publish(cur, EventStateChanged, nil)
	})
}

// Select feeds value to the active flow's current step. Completing the last
// step confirms the originating card and schedules the summary message.
func (s *Service) Select(ctx context.Context, id uuid.UUID, value string) (*Session, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := activeFlow(sess); err != nil {
		return nil, err
	}

	flow := *sess.Flow
	done, err := flow.Select(value)
	if err != nil {
		return nil, apperr.Validation(err.Error(), map[string]string{"step": string(sess.Flow.Current())})
	}
	if !done {
		sess.Flow = &flow
		return sess, s.save(ctx, sess)
	}

	msg := sess.message(flow.MessageID)
	if msg == nil || !msg.Card.Pending() {
		return nil, apperr.Conflict("booking card is no longer pending")
	}
	if err := msg.Card.Confirm(&flow); err != nil {
		return nil, apperr.Internal(err)
	}
	msg.Text = s.confirmationText(sess.Language, &flow)

	appt := s.appointment(sess, &flow)
	if err := s.repo.SaveAppointment(ctx, appt); err != nil {
		return nil, apperr.Wrap(err, "failed to record appointment")
	}

	sess.Flow = nil
	sess.State = StateFlowComplete
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	updated := *msg
	s.publish(sess, EventMessageUpdated, &updated)
	s.publish(sess, EventStateChanged, nil)

	metrics.RecordBooking(string(flow.Kind))
	s.logger.Info().
		Str("session_id", sess.ID.String()).
		Str("kind", string(flow.Kind)).
		Str("date", flow.Date).
		Str("time", flow.Time).
		Msg("booking confirmed")
	s.notify(sess, &flow)

	summary := s.summaryText(sess.Language, &flow)
	s.later(sess, summaryDelay, func(cur *Session) *Message {
		cur.Messages = append(cur.Messages, s.newMessage(SenderAgent, summary, nil))
		if cur.State == StateFlowComplete {
			cur.State = cur.restingState()
		}
		return &cur.Messages[len(cur.Messages)-1]
	})
	return sess, nil
}

func (s *Service) Back(ctx context.Context, id uuid.UUID) (*Session, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := activeFlow(sess); err != nil {
		return nil, err
	}
	if err := sess.Flow.Back(); err != nil {
		return nil, apperr.Validation(err.Error(), nil)
	}
	return sess, s.save(ctx, sess)
}

func activeFlow(sess *Session) error {
	if sess.State == StateAwaiting {
		return apperr.Conflict("a reply is still being prepared")
	}
	if sess.Flow == nil {
		return apperr.Conflict("no booking in progress")
	}
	return nil
}

func (s *Service) Flow(ctx context.Context, id uuid.UUID) (*FlowView, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Flow == nil {
		return nil, apperr.NotFound("flow", id.String())
	}
	return sess.Flow.view(i18n.Lookup(sess.Language, "chat.step."+string(sess.Flow.Current()))), nil
}

// ChangeLanguage resets the session: only the new welcome message remains.
func (s *Service) ChangeLanguage(ctx context.Context, id uuid.UUID, lang i18n.Language) (*Session, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.State == StateAwaiting {
		return nil, apperr.Conflict("a reply is still being prepared")
	}
	sess.Language = lang
	sess.Messages = []Message{s.welcome(lang)}
	sess.History = []Turn{}
	sess.Flow = nil
	sess.State = StateIdle
	sess.Epoch++
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	s.publish(sess, EventSessionReset, &sess.Messages[0])
	return sess, nil
}

// SubmitVoice transcribes audio and submits the result as typed text.
func (s *Service) SubmitVoice(ctx context.Context, id uuid.UUID, audio []byte) (*Session, error) {
	if s.transcriber == nil {
		return nil, apperr.Unavailable("voice input is not configured")
	}
	if len(audio) == 0 {
		return nil, apperr.Validation("audio is required", nil)
	}
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Submit checks again under the lock; this only spares the transcription.
	if sess.State == StateAwaiting {
		return nil, apperr.Conflict("a reply is still being prepared")
	}
	text, err := s.transcriber.Transcribe(ctx, audio, sess.Language)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", id.String()).Msg("transcription failed")
		return nil, apperr.Unavailable("speech recognition failed")
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("no speech recognised", nil)
	}
	return s.Submit(ctx, id, text)
}

func (s *Service) Subscribe(id uuid.UUID) *Subscription {
	return s.hub.Subscribe(id)
}

func (s *Service) Unsubscribe(sub *Subscription) {
	s.hub.Unsubscribe(sub)
}

func (s *Service) Appointments(ctx context.Context, owner string) ([]Appointment, error) {
	return s.repo.ListAppointments(ctx, owner)
}

func (s *Service) welcome(lang i18n.Language) Message {
	return s.newMessage(SenderAgent, i18n.Lookup(lang, "chat.welcome"), nil)
}

func (s *Service) newMessage(sender Sender, text string, card *Card) Message {
	return Message{ID: uuid.New(), Sender: sender, Text: text, Card: card, CreatedAt: s.now()}
}

func (s *Service) save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, sess); err != nil {
		return apperr.Wrap(err, "failed to save session")
	}
	return nil
}

func (s *Service) publish(sess *Session, t EventType, msg *Message) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(Event{Type: t, SessionID: sess.ID, State: sess.State, Message: msg, Timestamp: s.now()})
}

func (s *Service) appointment(sess *Session, f *Flow) *Appointment {
	return &Appointment{
		ID:          uuid.New(),
		SessionID:   sess.ID,
		Owner:       sess.Owner,
		Kind:        f.Kind,
		Doctor:      f.Doctor,
		Specialty:   f.Specialty,
		PatientName: f.PatientName,
		ScanType:    f.ScanType,
		Date:        f.Date,
		Time:        f.Time,
		CreatedAt:   s.now(),
	}
}

func flowArgs(f *Flow) map[string]string {
	return map[string]string{
		"doctor":      f.Doctor,
		"specialty":   f.Specialty,
		"patientName": f.PatientName,
		"scanType":    f.ScanType,
		"date":        f.Date,
		"time":        f.Time,
	}
}

func (s *Service) confirmationText(lang i18n.Language, f *Flow) string {
	if f.Kind == FlowLab {
		return i18n.Format(lang, "chat.labConfirmed", flowArgs(f))
	}
	return i18n.Format(lang, "chat.bookingConfirmed", flowArgs(f))
}

func (s *Service) summaryText(lang i18n.Language, f *Flow) string {
	if f.Kind == FlowLab {
		return i18n.Format(lang, "chat.labSummary", flowArgs(f))
	}
	return i18n.Format(lang, "chat.bookingSummary", flowArgs(f))
}

// notify is best effort; a failed notification never undoes a booking.
func (s *Service) notify(sess *Session, f *Flow) {
	if s.notifier == nil || s.clinicChatID == 0 {
		return
	}
	key := "notify.booking"
	if f.Kind == FlowLab {
		key = "notify.lab"
	}
	args := flowArgs(f)
	args["session"] = sess.ID.String()
	text := i18n.Format(i18n.Default, key, args)

	go func() {
		if err := s.notifier.SendMessage(s.clinicChatID, text); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("clinic notification failed")
		}
	}()
}
