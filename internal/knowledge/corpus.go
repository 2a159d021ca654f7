package knowledge

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed corpus.yaml
var defaultCorpus []byte

type corpusFile struct {
	Categories []Category `yaml:"categories"`
	Entries    []QAPair   `yaml:"entries"`
}

// Parse decodes a YAML corpus document.
func Parse(data []byte) ([]Category, []QAPair, error) {
	var f corpusFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse knowledge corpus: %w", err)
	}
	return f.Categories, f.Entries, nil
}

// LoadDefault builds the store from the embedded corpus plus the generated
// CO2 level entries.
func LoadDefault() (*Store, error) {
	cats, entries, err := Parse(defaultCorpus)
	if err != nil {
		return nil, err
	}
	entries = append(entries, GenerateCO2Levels(9, 100)...)
	return NewStore(cats, entries)
}

type co2Template struct {
	question string
	answer   string
	keywords []string
}

type co2Level struct {
	ppm            int
	status         string
	recommendation string
	effects        string
	action         string
	duration       string
}

var co2Templates = []co2Template{
	{"Is {val} ppm CO2 dangerous?", "CO2 at {val} ppm is {status}. {recommendation}", []string{"co2", "level", "dangerous", "ppm"}},
	{"What happens at {val} ppm CO2?", "At {val} ppm CO2: {effects}. {action}", []string{"co2", "effects", "symptoms"}},
	{"How long does it take to reduce CO2 from {val} ppm?", "Reducing CO2 from {val} ppm typically takes {time} with proper ventilation.", []string{"co2", "reduce", "time"}},
}

var co2Levels = []co2Level{
	{400, "excellent - outdoor level", "No action needed.", "optimal cognitive function", "Continue monitoring.", "N/A - already optimal"},
	{600, "good", "Maintain current ventilation.", "normal cognitive function", "No immediate action.", "5-10 minutes"},
	{800, "acceptable", "Monitor and ensure adequate ventilation.", "slight discomfort for sensitive individuals", "Increase ventilation if possible.", "10-15 minutes"},
	{1000, "at threshold", "Ventilate now to prevent further increase.", "beginning of cognitive decline", "Open windows or start the fans.", "15-20 minutes"},
	{1200, "elevated - action needed", "Ventilate immediately.", "noticeable drowsiness", "Enable every ventilation system.", "20-30 minutes"},
	{1500, "unhealthy", "Increase ventilation and reduce occupancy.", "fatigue, impaired concentration", "Evacuate if sensitive individuals present.", "30-45 minutes"},
	{2000, "very unhealthy", "Evacuate sensitive individuals.", "headaches, significant cognitive impairment", "Immediate action required.", "45-60 minutes"},
}

// GenerateCO2Levels produces count entries starting at aq_co2_<startID>,
// cycling templates and levels independently. Priority is id%3+2.
func GenerateCO2Levels(startID, count int) []QAPair {
	out := make([]QAPair, 0, count)
	for i := 0; i < count; i++ {
		id := startID + i
		t := co2Templates[i%len(co2Templates)]
		lv := co2Levels[i%len(co2Levels)]
		val := strconv.Itoa(lv.ppm)

		r := strings.NewReplacer(
			"{val}", val,
			"{status}", lv.status,
			"{recommendation}", lv.recommendation,
			"{effects}", lv.effects,
			"{action}", lv.action,
			"{time}", lv.duration,
		)
		kws := make([]string, 0, len(t.keywords)+1)
		kws = append(kws, t.keywords...)
		kws = append(kws, val)

		out = append(out, QAPair{
			ID:          fmt.Sprintf("aq_co2_%03d", id),
			Question:    r.Replace(t.question),
			Answer:      r.Replace(t.answer),
			Keywords:    kws,
			Category:    "air_quality",
			Subcategory: "co2",
			Priority:    id%3 + 2,
		})
	}
	return out
}
