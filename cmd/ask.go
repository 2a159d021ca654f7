package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"core_innovators/internal/assistant"
	"core_innovators/internal/config"
	"core_innovators/internal/knowledge"
	"core_innovators/internal/models"
	"core_innovators/internal/service"

	"github.com/spf13/cobra"
)

var (
	askJSON bool
	askCO2  float64
	askCO   float64
	askAQ   float64
	askSmk  float64
)

// askCmd runs one utterance against demo devices and an optional reading,
// without touching the database.
var askCmd = &cobra.Command{
	Use:   "ask <utterance>",
	Short: "Send one utterance to the assistant",
	Example: `  core ask "what is the co2 level" --co2 920
  core ask "turn off all fans"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the full reply as JSON")
	askCmd.Flags().Float64Var(&askCO2, "co2", -1, "CO2 ppm of the simulated reading")
	askCmd.Flags().Float64Var(&askCO, "co", -1, "CO ppm of the simulated reading")
	askCmd.Flags().Float64Var(&askAQ, "air-quality", -1, "Air quality ppm of the simulated reading")
	askCmd.Flags().Float64Var(&askSmk, "smoke", -1, "Smoke ppm of the simulated reading")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configDir, envFile)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(cfg.Assistant.Timezone)
	if err != nil {
		return fmt.Errorf("assistant.timezone: %w", err)
	}
	store, err := knowledge.LoadDefault()
	if err != nil {
		return err
	}

	devices := service.NewDeviceRegistry(service.DefaultDevices(), nil)
	in := assistant.NewInterpreter(devices, fixedReading{askReading()}, knowledge.NewMatcher(store),
		assistantOptions(cfg.Assistant, loc))

	reply := in.Handle(cmd.Context(), strings.Join(args, " "))
	out := cmd.OutOrStdout()
	if askJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}
	fmt.Fprintln(out, reply.Text)
	if reply.Action != nil {
		fmt.Fprintf(out, "→ %s (%d device(s))\n", reply.Action.String(), reply.Affected)
	}
	return nil
}

func askReading() models.SensorReading {
	r := models.SensorReading{CreatedAt: time.Now().UTC()}
	set := func(v float64) *float64 {
		if v < 0 {
			return nil
		}
		return models.Float(v)
	}
	r.CO2PPM = set(askCO2)
	r.COPPM = set(askCO)
	r.AirQualityPPM = set(askAQ)
	r.SmokePPM = set(askSmk)
	return r
}

// fixedReading serves one reading to the interpreter.
type fixedReading struct {
	r models.SensorReading
}

func (f fixedReading) Latest(context.Context) (models.SensorReading, error) { return f.r, nil }

func assistantOptions(c config.AssistantConfig, loc *time.Location) assistant.Options {
	return assistant.Options{
		MinKnowledgeScore: c.MinKnowledgeScore,
		WakeWord:          c.WakeWord,
		Owner:             c.Owner,
		Location:          loc,
	}
}
