package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"engagebot/bot/common"
	"engagebot/events"
	"engagebot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const fenceClose = "\n```"

// MessageAPI is the part of the discord session used to post messages
type MessageAPI interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Sender posts text to channels, splitting long messages and limiting the
// send rate per channel
type Sender struct {
	api       MessageAPI
	publisher service.EventPublisher
	limit     rate.Limit
	burst     int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	queues   map[string]*channelQueue
	closed   bool
	wg       sync.WaitGroup
}

// channelQueue holds posted messages for one channel. A single worker drains
// it so messages arrive in the order they were posted.
type channelQueue struct {
	pending []string
	running bool
}

// NewSender creates a sender. publisher may be nil.
func NewSender(api MessageAPI, publisher service.EventPublisher, perSecond float64, burst int) *Sender {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Sender{
		api:       api,
		publisher: publisher,
		limit:     limit,
		burst:     burst,
		limiters:  make(map[string]*rate.Limiter),
		queues:    make(map[string]*channelQueue),
	}
}

// Send delivers text to a channel and waits for every chunk to go out
func (s *Sender) Send(ctx context.Context, channelID, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	limiter := s.limiter(channelID)
	for _, chunk := range SplitMessage(text, common.MaxMessageLength) {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("failed to wait for send slot: %w", err)
		}
		if _, err := s.api.ChannelMessageSend(channelID, chunk); err != nil {
			s.emit(ctx, channelID, true)
			return fmt.Errorf("failed to send message: %w", err)
		}
		s.emit(ctx, channelID, false)
	}
	return nil
}

// Post queues text for background delivery. Messages to the same channel are
// sent in order. Failures are logged and never retried. Posts after Close are
// dropped.
func (s *Sender) Post(channelID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		log.WithField("channel_id", channelID).Warn("Sender closed, dropping message")
		return
	}

	q, ok := s.queues[channelID]
	if !ok {
		q = &channelQueue{}
		s.queues[channelID] = q
	}
	q.pending = append(q.pending, text)
	if q.running {
		return
	}
	q.running = true
	s.wg.Add(1)
	go s.drain(channelID, q)
}

func (s *Sender) drain(channelID string, q *channelQueue) {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			delete(s.queues, channelID)
			s.mu.Unlock()
			return
		}
		text := q.pending[0]
		q.pending = q.pending[1:]
		s.mu.Unlock()

		if err := s.Send(context.Background(), channelID, text); err != nil {
			log.WithFields(log.Fields{
				"channel_id": channelID,
				"error":      err,
			}).Error("Failed to deliver message")
		}
	}
}

// Close stops accepting posts and blocks until every queued message has been handled
func (s *Sender) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Sender) limiter(channelID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[channelID]
	if !ok {
		l = rate.NewLimiter(s.limit, s.burst)
		s.limiters[channelID] = l
	}
	return l
}

func (s *Sender) emit(ctx context.Context, channelID string, failed bool) {
	if s.publisher == nil {
		return
	}
	s.publisher.Emit(ctx, events.MessageSentEvent{ChannelID: channelID, Failed: failed})
}

// SplitMessage breaks text into chunks of at most limit bytes. Lines are kept
// whole where possible, and a code block cut across chunks is closed at the
// end of one chunk and reopened at the start of the next.
func SplitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
		fence  string // opening line of the code block we are inside
		body   bool   // cur holds content beyond a reopened fence
	)

	write := func(s string) {
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(s)
		body = true
	}
	flush := func() {
		out := cur.String()
		if fence != "" {
			out += fenceClose
		}
		chunks = append(chunks, out)
		cur.Reset()
		body = false
		if fence != "" {
			cur.WriteString(fence)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		isFence := strings.HasPrefix(strings.TrimSpace(line), "```")
		for {
			reserve := 0
			if fence != "" || isFence {
				reserve = len(fenceClose)
			}
			sep := 0
			if cur.Len() > 0 {
				sep = 1
			}
			room := limit - cur.Len() - sep - reserve
			if len(line) <= room {
				break
			}
			if body {
				flush()
				continue
			}
			// a single line longer than a whole chunk
			if room < 1 {
				room = 1
			}
			for room > 1 && !utf8.RuneStart(line[room]) {
				room--
			}
			write(line[:room])
			line = line[room:]
			flush()
		}
		write(line)
		if isFence {
			if fence == "" {
				fence = strings.TrimSpace(line)
			} else {
				fence = ""
			}
		}
	}
	if body {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
