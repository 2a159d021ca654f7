package assistant

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"core_innovators/internal/models"
)

// rule is one entry of the command table. phrases are matched exactly in
// the first pass and on word boundaries in the second; when, if set, is an
// extra predicate consulted in the second pass only.
type rule struct {
	category string
	phrases  []string
	when     func(q string) bool
	respond  func(ctx context.Context, in *Interpreter, q string) Reply
}

// matchRules runs the exact pass over the whole table, then the partial pass.
func (in *Interpreter) matchRules(ctx context.Context, q string) (Reply, bool) {
	for _, r := range in.rules {
		for _, p := range r.phrases {
			if q == p {
				return in.fire(ctx, r, q), true
			}
		}
	}
	for _, r := range in.rules {
		if hasAnyPhrase(q, r.phrases...) || (r.when != nil && r.when(q)) {
			return in.fire(ctx, r, q), true
		}
	}
	return Reply{}, false
}

func (in *Interpreter) fire(ctx context.Context, r rule, q string) Reply {
	reply := r.respond(ctx, in, q)
	reply.Source = SourceRule
	if reply.Category == "" {
		reply.Category = r.category
	}
	return reply
}

func say(text string, e Emotion) func(context.Context, *Interpreter, string) Reply {
	return func(_ context.Context, in *Interpreter, _ string) Reply {
		return in.say(SourceRule, strings.ReplaceAll(text, "{owner}", in.opts.Owner), e)
	}
}

func act(a *models.Action, text string, e Emotion) func(context.Context, *Interpreter, string) Reply {
	return func(ctx context.Context, in *Interpreter, q string) Reply {
		r := say(text, e)(ctx, in, q)
		copied := *a
		r.Action = &copied
		return r
	}
}

func report(c models.Channel) func(context.Context, *Interpreter, string) Reply {
	return func(ctx context.Context, in *Interpreter, _ string) Reply {
		text, e := channelReport(c, in.latest(ctx))
		return in.say(SourceRule, text, e)
	}
}

// onOff expands a device phrase into its on and off command variants.
func onOff(object string, s models.PowerState) []string {
	verb := string(s)
	return []string{
		"turn " + verb + " " + object,
		"switch " + verb + " " + object,
		"turn " + object + " " + verb,
		object + " " + verb,
	}
}

var rooms = []struct {
	phrase string
	name   string
	fans   []string
	lights []string
}{
	{phrase: "living room", name: "Living Room", fans: []string{"fan"}, lights: []string{"light", "lamp"}},
	{phrase: "bedroom", name: "Bedroom", fans: []string{"fan"}, lights: []string{"light", "lamp"}},
	{phrase: "kitchen", name: "Kitchen", fans: []string{"fan", "exhaust"}, lights: []string{"light"}},
}

func roomIn(q string) string {
	for _, r := range rooms {
		if hasPhrase(q, r.phrase) {
			return r.name
		}
	}
	return ""
}

var (
	onWords     = []string{"turn on", "switch on", "power on"}
	offWords    = []string{"turn off", "switch off", "power off", "shut off", "shut down"}
	lightWords  = []string{"light", "lights", "lamp", "lamps"}
	fanWords    = []string{"fan", "fans", "exhaust"}
	purifWords  = []string{"purifier", "purifiers", "air purifier"}
	plugWords   = []string{"plug", "plugs", "relay", "smart plug"}
	allWords    = []string{"all", "everything", "every"}
	modeWords   = map[string]models.DeviceMode{"auto": models.ModeAuto, "manual": models.ModeManual, "power": models.ModePower, "sleep": models.ModeSleep}
	deviceWords = concat(lightWords, fanWords, purifWords, plugWords, allWords, []string{"devices", "living room", "bedroom", "kitchen"})
)

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

var questionWords = []string{"is", "are", "was", "what", "which", "who", "why", "how", "do", "does", "can", "should"}

// powerCommand reports whether q asks to switch something on or off, either
// with a leading verb ("turn off the fan") or a trailing state ("turn the
// fan off", "kitchen lights on").
func powerCommand(q string) bool {
	if hasAnyPhrase(q, concat(onWords, offWords)...) {
		return true
	}
	f := strings.Fields(q)
	if len(f) < 2 {
		return false
	}
	if last := f[len(f)-1]; last != "on" && last != "off" {
		return false
	}
	switch f[0] {
	case "turn", "switch", "power", "put":
		return true
	}
	return len(f) <= 4 && !slices.Contains(questionWords, f[0])
}

func requestedState(q string) models.PowerState {
	if hasAnyPhrase(q, offWords...) || strings.HasSuffix(q, " off") {
		return models.PowerOff
	}
	return models.PowerOn
}

// deviceCommand parses free-form power commands that no fixed phrase caught.
func deviceCommand(_ context.Context, in *Interpreter, q string) Reply {
	s := requestedState(q)
	fan, light := hasAnyPhrase(q, fanWords...), hasAnyPhrase(q, lightWords...)
	purifier, plug := hasAnyPhrase(q, purifWords...), hasAnyPhrase(q, plugWords...)

	var (
		a    *models.Action
		what string
	)
	switch room := roomIn(q); {
	case hasAnyPhrase(q, allWords...):
		switch {
		case fan:
			a, what = models.SetType(models.DeviceFan, s), "All fans"
		case light:
			a, what = models.SetType(models.DeviceLight, s), "All lights"
		case purifier:
			a, what = models.SetType(models.DevicePurifier, s), "All purifiers"
		default:
			a, what = models.SetAll(s), "All devices"
		}
	case room != "":
		switch {
		case fan:
			a, what = models.SetRoomDevice(room, models.DeviceFan, s), room+" fan"
		case light:
			a, what = models.SetRoomDevice(room, models.DeviceLight, s), room+" light"
		case purifier:
			a, what = models.SetRoomDevice(room, models.DevicePurifier, s), room+" purifier"
		default:
			a, what = models.SetRoom(room, s), "All "+room+" devices"
		}
	case hasPhrase(q, "ceiling fan"):
		r := in.say(SourceRule, "Toggling the ceiling fan, "+in.opts.Owner+".", EmotionHappy)
		r.Action = models.ToggleByName("ceiling fan")
		return r
	case fan:
		a, what = models.SetType(models.DeviceFan, s), "Fans"
	case light:
		a, what = models.SetType(models.DeviceLight, s), "Lights"
	case purifier:
		a, what = models.SetType(models.DevicePurifier, s), "Air purifier"
	case plug:
		a, what = models.SetType(models.DeviceRelay, s), "Smart plugs"
	default:
		return in.say(SourceRule, fmt.Sprintf("Which device should I turn %s, %s?", s, in.opts.Owner), EmotionCalm)
	}
	r := in.say(SourceRule, fmt.Sprintf("%s turned %s, %s.", what, s, in.opts.Owner), EmotionHappy)
	r.Action = a
	return r
}

func purifierMode(_ context.Context, in *Interpreter, q string) Reply {
	for _, w := range []string{"auto", "manual", "power", "sleep"} {
		if hasPhrase(q, w) {
			m := modeWords[w]
			r := in.say(SourceRule, fmt.Sprintf("Air purifier set to %s mode.", m), EmotionHappy)
			r.Action = models.SetModeByType(models.DevicePurifier, m)
			return r
		}
	}
	return in.say(SourceRule, "Which mode would you like for the purifier: auto, manual, power or sleep?", EmotionCalm)
}

var roomTemperatures = map[string]string{
	"Living Room": "23.5",
	"Bedroom":     "22",
	"Kitchen":     "26",
}

func temperature(_ context.Context, in *Interpreter, q string) Reply {
	if room := roomIn(q); room != "" {
		return in.say(SourceRule, fmt.Sprintf("%s temperature is %s°C.", room, roomTemperatures[room]), EmotionCalm)
	}
	return in.say(SourceRule, "Average home temperature is 24°C. Living room 23.5°C, bedroom 22°C, kitchen 26°C.", EmotionCalm)
}

func airQuality(ctx context.Context, in *Interpreter, _ string) Reply {
	r := in.latest(ctx)
	aq, aqEmotion := channelReport(models.ChannelAirQuality, r)
	co2, co2Emotion := channelReport(models.ChannelCO2, r)
	e := EmotionCalm
	if aqEmotion == EmotionCaring || co2Emotion == EmotionCaring {
		e = EmotionCaring
	}
	return in.say(SourceRule, aq+" "+co2, e)
}

// safetyCheck summarizes every hazardous channel of the latest reading.
func safetyCheck(ctx context.Context, in *Interpreter, _ string) Reply {
	r := in.latest(ctx)
	if r.IsEmpty() {
		return in.say(SourceRule, "I can't confirm safety yet: no sensor data is available.", EmotionCaring)
	}
	var issues []string
	for _, c := range models.GasChannels {
		v, ok := r.Value(c)
		if !ok {
			continue
		}
		if status := reportBands[c].label(v); status != reportBands[c].labels[0] {
			issues = append(issues, fmt.Sprintf("%s is %s", reportSubjects[c], status))
		}
	}
	if detected, ok := r.Flag(models.ChannelFlame); ok && detected {
		issues = append(issues, "flame detected")
	}
	if len(issues) == 0 {
		return in.say(SourceRule, "Yes, "+in.opts.Owner+". All sensors read normal. Your home is safe.", EmotionCaring)
	}
	return in.say(SourceRule, "Attention: "+strings.Join(issues, "; ")+".", EmotionCaring)
}

func gasCheck(ctx context.Context, in *Interpreter, _ string) Reply {
	r := in.latest(ctx)
	co, e := channelReport(models.ChannelCO, r)
	smoke, _ := channelReport(models.ChannelSmoke, r)
	return in.say(SourceRule, co+" "+smoke, e)
}

func fireCheck(ctx context.Context, in *Interpreter, _ string) Reply {
	r := in.latest(ctx)
	flame, e := channelReport(models.ChannelFlame, r)
	smoke, _ := channelReport(models.ChannelSmoke, r)
	return in.say(SourceRule, flame+" "+smoke, e)
}

// deviceWatts approximates the draw of an active device by type.
var deviceWatts = map[models.DeviceType]float64{
	models.DeviceLight:    10,
	models.DeviceFan:      60,
	models.DeviceRelay:    100,
	models.DevicePurifier: 45,
}

func energyUsage(ctx context.Context, in *Interpreter, _ string) Reply {
	watts, active := activeWatts(ctx, in)
	return in.say(SourceRule, fmt.Sprintf("Your devices are drawing about %s watts across %d active devices.", models.FormatPPM(watts), active), EmotionCalm)
}

// tariffPerKWh is the electricity price used for cost estimates, in rupees.
const tariffPerKWh = 8.0

func activeWatts(ctx context.Context, in *Interpreter) (watts float64, active int) {
	for _, d := range in.devices.List(ctx) {
		if d.Status == models.PowerOn {
			watts += deviceWatts[d.Type]
			active++
		}
	}
	return watts, active
}

func energyCost(ctx context.Context, in *Interpreter, _ string) Reply {
	watts, _ := activeWatts(ctx, in)
	cost := watts / 1000 * tariffPerKWh
	return in.say(SourceRule, fmt.Sprintf("At about %s watts, running costs are roughly %.2f rupees per hour.", models.FormatPPM(watts), cost), EmotionCalm)
}

func activeDevices(ctx context.Context, in *Interpreter, _ string) Reply {
	var names []string
	for _, d := range in.devices.List(ctx) {
		if d.Status == models.PowerOn {
			names = append(names, d.Name)
		}
	}
	if len(names) == 0 {
		return in.say(SourceRule, "All devices are off.", EmotionCalm)
	}
	return in.say(SourceRule, fmt.Sprintf("%d devices are on: %s.", len(names), strings.Join(names, ", ")), EmotionCalm)
}

func statusReport(ctx context.Context, in *Interpreter, q string) Reply {
	devices := in.devices.List(ctx)
	on := 0
	for _, d := range devices {
		if d.Status == models.PowerOn {
			on++
		}
	}
	safety := safetyCheck(ctx, in, q)
	text := fmt.Sprintf("System report: %d of %d devices are on. %s", on, len(devices), allSensorsReport(in.latest(ctx)))
	return in.say(SourceRule, text, safety.Emotion)
}

func currentTime(_ context.Context, in *Interpreter, _ string) Reply {
	now := in.opts.Now().In(in.opts.Location)
	return in.say(SourceRule, "It's "+now.Format("3:04 PM")+".", EmotionCalm)
}

func currentDate(_ context.Context, in *Interpreter, _ string) Reply {
	now := in.opts.Now().In(in.opts.Location)
	return in.say(SourceRule, "Today is "+now.Format("Monday, January 2, 2006")+".", EmotionCalm)
}

func powerPhrases(object string) []string {
	return append(onOff(object, models.PowerOn), onOff(object, models.PowerOff)...)
}

func roomDevice(phrase, room string, t models.DeviceType, words []string) rule {
	var phrases []string
	for _, w := range words {
		phrases = append(phrases, powerPhrases(phrase+" "+w)...)
	}
	return rule{
		category: "device_control",
		phrases:  phrases,
		respond: func(_ context.Context, in *Interpreter, q string) Reply {
			s := requestedState(q)
			r := in.say(SourceRule, fmt.Sprintf("%s %s %s, %s.", room, t, s, in.opts.Owner), EmotionHappy)
			r.Action = models.SetRoomDevice(room, t, s)
			return r
		},
	}
}

func roomWide(phrase, room string) rule {
	return rule{
		category: "device_control",
		phrases:  powerPhrases(phrase),
		respond: func(_ context.Context, in *Interpreter, q string) Reply {
			s := requestedState(q)
			r := in.say(SourceRule, fmt.Sprintf("%s devices %s, %s.", room, s, in.opts.Owner), EmotionHappy)
			r.Action = models.SetRoom(room, s)
			return r
		},
	}
}

// buildRules returns the command table in priority order. Room-specific
// commands come before the free-form device parser, which comes before the
// house-wide phrases so "kitchen lights on" is not read as "lights on".
func buildRules() []rule {
	var rs []rule
	for _, r := range rooms {
		rs = append(rs,
			roomDevice(r.phrase, r.name, models.DeviceLight, r.lights),
			roomDevice(r.phrase, r.name, models.DeviceFan, r.fans),
		)
	}
	for _, r := range rooms {
		rs = append(rs, roomWide(r.phrase, r.name))
	}

	var purifierPhrases []string
	for _, m := range []string{"auto", "manual", "power", "sleep"} {
		purifierPhrases = append(purifierPhrases,
			"purifier "+m+" mode", "air purifier "+m, "set purifier to "+m, "change air purifier to "+m+" mode")
	}

	rs = append(rs,
		rule{category: "purifier_control",
			phrases: purifierPhrases,
			when: func(q string) bool {
				if !hasAnyPhrase(q, purifWords...) {
					return false
				}
				if hasPhrase(q, "mode") {
					return true
				}
				return !powerCommand(q) && hasAnyPhrase(q, "auto", "manual", "power", "sleep")
			},
			respond: purifierMode},
		rule{category: "device_control",
			when: func(q string) bool {
				return powerCommand(q) && hasAnyPhrase(q, deviceWords...)
			},
			respond: deviceCommand},

		rule{category: "device_control", phrases: concat(onOff("all lights", models.PowerOn), []string{"lights on", "turn on lights", "turn on the lights"}),
			respond: act(models.SetType(models.DeviceLight, models.PowerOn), "All lights turned on, {owner}.", EmotionHappy)},
		rule{category: "device_control", phrases: concat(onOff("all lights", models.PowerOff), []string{"lights off", "turn off lights", "turn off the lights"}),
			respond: act(models.SetType(models.DeviceLight, models.PowerOff), "All lights turned off, {owner}.", EmotionHappy)},
		rule{category: "device_control", phrases: concat(onOff("all fans", models.PowerOn), []string{"fans on", "start all fans", "start the fans"}),
			respond: act(models.SetType(models.DeviceFan, models.PowerOn), "All fans turned on, {owner}.", EmotionHappy)},
		rule{category: "device_control", phrases: concat(onOff("all fans", models.PowerOff), []string{"fans off", "stop all fans", "stop the fans"}),
			respond: act(models.SetType(models.DeviceFan, models.PowerOff), "All fans turned off, {owner}.", EmotionHappy)},
		rule{category: "device_control", phrases: concat(onOff("all devices", models.PowerOn), onOff("everything", models.PowerOn)),
			respond: act(models.SetAll(models.PowerOn), "All devices turned on, {owner}.", EmotionHappy)},
		rule{category: "device_control", phrases: concat(onOff("all devices", models.PowerOff), onOff("everything", models.PowerOff)),
			respond: act(models.SetAll(models.PowerOff), "All devices turned off, {owner}.", EmotionHappy)},

		rule{category: "scenes", phrases: []string{"movie mode", "cinema mode", "movie time", "watch a movie", "watching movie"},
			respond: say("Movie mode activated. Enjoy your film, {owner}.", EmotionHappy)},
		rule{category: "scenes", phrases: []string{"sleep mode", "bedtime", "going to sleep", "time for bed"},
			respond: act(models.SetType(models.DeviceLight, models.PowerOff), "Sleep mode activated. Lights off and purifier stays on. Sweet dreams, {owner}.", EmotionCaring)},
		rule{category: "scenes", phrases: []string{"wake up mode", "morning mode", "waking up", "i'm awake"},
			respond: act(models.SetType(models.DeviceLight, models.PowerOn), "Good morning, {owner}! Lights on and ready for the day.", EmotionHappy)},
		rule{category: "scenes", phrases: []string{"away mode", "leaving home", "going out", "i'm leaving"},
			respond: act(models.SetAll(models.PowerOff), "Away mode on. All devices off and security monitoring active.", EmotionCalm)},
		rule{category: "scenes", phrases: []string{"home mode", "i'm home", "i am home", "arrived home"},
			respond: say("Welcome home, {owner}! Home mode activated.", EmotionHappy)},

		rule{category: "environment", phrases: []string{"temperature", "what is the temperature", "current temperature", "temp", "how hot is it", "how cold is it"},
			respond: temperature},
		rule{category: "environment", phrases: []string{"humidity", "what is the humidity", "humidity level", "how humid is it"},
			respond: say("Humidity is 45%, which is comfortable.", EmotionCalm)},
		rule{category: "environment", phrases: []string{"air quality", "check air quality", "how is the air", "air status", "air"},
			respond: airQuality},
		rule{category: "environment", phrases: []string{"co2", "carbon dioxide", "co2 level"},
			respond: report(models.ChannelCO2)},
		rule{category: "environment", phrases: []string{"pm2.5", "pm", "particulate matter", "air particles"},
			respond: say("Particulate matter is not measured by this home's sensors. Ask me about CO2, CO, air quality or smoke.", EmotionCalm)},

		rule{category: "safety", phrases: []string{"smoke detector", "smoke", "fire", "fire alarm"},
			respond: fireCheck},
		rule{category: "safety", phrases: []string{"gas leak", "gas", "leak", "check gas"},
			respond: gasCheck},
		rule{category: "safety", phrases: []string{"unlock doors", "unlock the doors", "open doors", "open the doors", "unlock"},
			respond: say("Doors unlocked. Remember to lock them again, {owner}.", EmotionCaring)},
		rule{category: "safety", phrases: []string{"lock doors", "lock the doors", "lock all doors", "secure doors", "secure the doors", "lock"},
			respond: say("All doors locked. Your home is secure.", EmotionCaring)},
		rule{category: "safety", phrases: []string{"disarm security", "deactivate security", "disarm", "turn off security"},
			respond: say("Security system disarmed.", EmotionCalm)},
		rule{category: "safety", phrases: []string{"arm security", "arm", "turn on security", "activate security"},
			respond: say("Security system armed. I'll watch over your home, {owner}.", EmotionCaring)},

		rule{category: "safety", phrases: []string{"is everything safe", "am i safe", "safety status", "security check", "safety", "safe", "security"},
			respond: safetyCheck},

		rule{category: "energy", phrases: []string{"energy cost", "electricity bill", "power cost", "electricity cost"},
			respond: energyCost},
		rule{category: "energy", phrases: []string{"energy usage", "power usage", "power consumption", "how much power", "electricity usage", "energy", "consumption"},
			respond: energyUsage},

		rule{category: "status", phrases: []string{"device status", "what devices are on", "active devices", "which devices are on"},
			respond: activeDevices},
		rule{category: "status", phrases: []string{"system status", "full report", "status report", "everything ok", "is everything ok", "check everything", "status", "report", "everything"},
			respond: statusReport},

		rule{category: "time", phrases: []string{"what time is it", "current time", "time"},
			respond: currentTime},
		rule{category: "date", phrases: []string{"what date is it", "today's date", "what day is it", "date"},
			respond: currentDate},

		rule{category: "help", phrases: []string{"help", "what can you do", "commands", "capabilities", "features"},
			respond: say("I can control lights, fans and purifiers, report CO2, CO, air quality, smoke and flame readings, run scenes like movie or sleep mode, and answer questions about your home.", EmotionHappy)},

		rule{category: "greetings", phrases: []string{"good morning"},
			respond: say("Good morning, {owner}! Hope you slept well.", EmotionHappy)},
		rule{category: "greetings", phrases: []string{"good night", "goodnight"},
			respond: say("Good night, {owner}. I'll keep an eye on the house.", EmotionCaring)},
		rule{category: "greetings", phrases: []string{"hey core", "hello", "hi", "hey", "good afternoon", "good evening"},
			respond: say("Hello, {owner}! How can I help you today?", EmotionHappy)},
		rule{category: "greetings", phrases: []string{"thank you", "thanks", "thank"},
			respond: say("You're welcome, {owner}. Always here for you.", EmotionCaring)},
		rule{category: "greetings", phrases: []string{"bye", "goodbye", "see you"},
			respond: say("Goodbye, {owner}. Stay safe.", EmotionCaring)},

		rule{category: "help", phrases: []string{"how do i", "how to", "teach me"},
			respond: say("Just speak naturally. Try 'turn on lights', 'what's the temperature' or 'is everything safe'.", EmotionCalm)},
	)
	return rs
}
