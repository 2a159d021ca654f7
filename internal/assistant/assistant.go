// Package assistant turns free-text utterances into sensor reports,
// knowledge answers, device actions or a fallback reply.
package assistant

import (
	"context"
	"strings"
	"time"

	"core_innovators/internal/knowledge"
	"core_innovators/internal/models"
)

// Source tells which resolution step produced a reply.
type Source string

const (
	SourceSensor    Source = "sensor"
	SourceKnowledge Source = "knowledge"
	SourceRule      Source = "rule"
	SourceFallback  Source = "fallback"
	SourceWake      Source = "wake"
)

const (
	DefaultWakeWord          = "hey core"
	DefaultOwner             = "Durai"
	DefaultMinKnowledgeScore = 40
)

// Devices is the part of the device registry the interpreter drives.
type Devices interface {
	Apply(ctx context.Context, a models.Action) (int, error)
	List(ctx context.Context) []models.Device
}

// Readings provides the latest sensor snapshot.
type Readings interface {
	Latest(ctx context.Context) (models.SensorReading, error)
}

// Reply is the interpreter's answer to one utterance.
type Reply struct {
	Text        string         `json:"text"`
	Source      Source         `json:"source"`
	Emotion     Emotion        `json:"emotion"`
	Voice       Voice          `json:"voice"`
	Action      *models.Action `json:"action,omitempty"`
	Affected    int            `json:"affected,omitempty"`
	Error       string         `json:"error,omitempty"`
	Category    string         `json:"category,omitempty"`
	KnowledgeID string         `json:"knowledge_id,omitempty"`
}

// Options tune the interpreter. Zero values take defaults.
type Options struct {
	// MinKnowledgeScore is the lowest text score (priority bonus excluded)
	// a knowledge hit needs before it is used as the answer.
	MinKnowledgeScore int
	WakeWord          string
	Owner             string
	Now               func() time.Time
	Location          *time.Location
}

// Interpreter resolves utterances. It owns no state; devices and readings
// are injected collaborators.
type Interpreter struct {
	devices  Devices
	readings Readings
	matcher  *knowledge.Matcher
	rules    []rule
	opts     Options
}

func NewInterpreter(devices Devices, readings Readings, matcher *knowledge.Matcher, opts Options) *Interpreter {
	if opts.MinKnowledgeScore <= 0 {
		opts.MinKnowledgeScore = DefaultMinKnowledgeScore
	}
	if opts.WakeWord == "" {
		opts.WakeWord = DefaultWakeWord
	}
	opts.WakeWord = normalize(opts.WakeWord)
	if opts.Owner == "" {
		opts.Owner = DefaultOwner
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Interpreter{
		devices:  devices,
		readings: readings,
		matcher:  matcher,
		rules:    buildRules(),
		opts:     opts,
	}
}

// Handle resolves one utterance. It never fails: every input ends in a reply.
func (in *Interpreter) Handle(ctx context.Context, utterance string) Reply {
	q := normalize(utterance)

	if q == in.opts.WakeWord {
		return in.say(SourceWake, "Yes, "+in.opts.Owner+"? I'm listening.", EmotionHappy)
	}
	if rest, ok := strings.CutPrefix(q, in.opts.WakeWord+" "); ok {
		q = rest
	}
	if q == "" {
		return in.say(SourceFallback, "I didn't catch that. Could you say it again?", EmotionCalm)
	}

	reply, ok := in.sensorQuery(ctx, q)
	if !ok {
		reply, ok = in.knowledgeAnswer(q)
	}
	if !ok {
		reply, ok = in.matchRules(ctx, q)
	}
	if !ok {
		reply = in.say(SourceFallback, "I heard: "+strings.TrimSpace(utterance)+
			". I can help you control devices, check environment data, manage security, or answer questions about your home. What would you like?",
			EmotionCalm)
	}

	if reply.Action != nil {
		n, err := in.devices.Apply(ctx, *reply.Action)
		reply.Affected = n
		if err != nil {
			reply.Error = err.Error()
			reply.Text = "Sorry, " + in.opts.Owner + ", I couldn't find a device for that."
			reply.Emotion = EmotionCaring
		}
	}
	reply.Voice = VoiceFor(reply.Emotion)
	return reply
}

func (in *Interpreter) knowledgeAnswer(q string) (Reply, bool) {
	if in.matcher == nil {
		return Reply{}, false
	}
	hits := in.matcher.SearchScored(q, 1)
	if len(hits) == 0 {
		return Reply{}, false
	}
	top := hits[0]
	if top.TextScore < in.opts.MinKnowledgeScore || top.KeywordHits == 0 {
		return Reply{}, false
	}
	r := in.say(SourceKnowledge, top.Entry.Answer, EmotionCalm)
	r.Category = top.Entry.Category
	r.KnowledgeID = top.Entry.ID
	return r, true
}

func (in *Interpreter) latest(ctx context.Context) models.SensorReading {
	if in.readings == nil {
		return models.SensorReading{}
	}
	r, err := in.readings.Latest(ctx)
	if err != nil {
		return models.SensorReading{}
	}
	return r
}

func (in *Interpreter) say(src Source, text string, e Emotion) Reply {
	return Reply{Text: text, Source: src, Emotion: e, Voice: VoiceFor(e)}
}

// normalize lower-cases s, turns punctuation into spaces and collapses
// whitespace. Apostrophes and inner dots survive ("what's", "pm2.5").
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'', r == '.':
			b.WriteRune(r)
		case r == '’':
			b.WriteByte('\'')
		case r == '₂':
			b.WriteByte('2')
		default:
			b.WriteByte(' ')
		}
	}
	fields := strings.Fields(b.String())
	out := fields[:0]
	for _, f := range fields {
		if f = strings.Trim(f, ".'"); f != "" {
			out = append(out, f)
		}
	}
	return strings.Join(out, " ")
}

// hasPhrase reports whether p occurs in q on word boundaries.
func hasPhrase(q, p string) bool {
	return strings.Contains(" "+q+" ", " "+p+" ")
}

func hasAnyPhrase(q string, ps ...string) bool {
	for _, p := range ps {
		if hasPhrase(q, p) {
			return true
		}
	}
	return false
}
