package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/shipdesk/shipdesk/scripts/internal"
)

// Command represents a script that can be run
type Command struct {
	Name        string
	Description string
	Run         func() error
}

var commands = []Command{
	{
		Name:        "next-number",
		Description: "Issue or preview the next document number of a series",
		Run:         internal.NextNumber,
	},
	{
		Name:        "setup-fee",
		Description: "Show the setup fee in force",
		Run:         internal.ShowSetupFee,
	},
	{
		Name:        "monthly-charges",
		Description: "Show the monthly charges or bill of a client",
		Run:         internal.ShowMonthlyCharges,
	},
	{
		Name:        "update-plan-rate",
		Description: "Change the operations rate and promotional price of a plan",
		Run:         internal.UpdatePlanRate,
	},
}

func main() {
	var (
		listCommands bool
		cmdName      string
		series       string
		periodKey    string
		peek         bool
		clientID     string
		planID       string
		month        string
		year         string
		rate         string
		promo        string
		at           string
	)

	flag.BoolVar(&listCommands, "list", false, "List all available commands")
	flag.StringVar(&cmdName, "cmd", "", "Command to run")
	flag.StringVar(&series, "series", "", "Series name, e.g. delivery or invoice")
	flag.StringVar(&periodKey, "period-key", "", "Period key of the series, defaults to the current year")
	flag.BoolVar(&peek, "peek", false, "Preview the next number without consuming it")
	flag.StringVar(&clientID, "client-id", "", "Client ID for billing operations")
	flag.StringVar(&planID, "plan-id", "", "Plan ID for billing operations")
	flag.StringVar(&month, "month", "", "Billing month, 1-12")
	flag.StringVar(&year, "year", "", "Billing year")
	flag.StringVar(&rate, "operations-rate", "", "New operations rate in EUR")
	flag.StringVar(&promo, "promotional-price", "", "New promotional price in EUR, empty removes it")
	flag.StringVar(&at, "at", "", "Evaluate the setup fee at this RFC3339 instant")

	flag.Parse()

	if listCommands {
		fmt.Println("Available commands:")
		for _, cmd := range commands {
			fmt.Printf("  %-20s %s\n", cmd.Name, cmd.Description)
		}
		return
	}

	if cmdName == "" {
		log.Fatal("Please specify a command to run using -cmd flag. Use -list to see available commands.")
	}

	// Set command-specific environment variables
	env := map[string]string{
		"SERIES":            series,
		"PERIOD_KEY":        periodKey,
		"CLIENT_ID":         clientID,
		"PLAN_ID":           planID,
		"MONTH":             month,
		"YEAR":              year,
		"OPERATIONS_RATE":   rate,
		"PROMOTIONAL_PRICE": promo,
		"AT":                at,
	}
	for k, v := range env {
		if v != "" {
			os.Setenv(k, v)
		}
	}
	if peek {
		os.Setenv("PEEK", "true")
	}

	for _, cmd := range commands {
		if cmd.Name == cmdName {
			if err := cmd.Run(); err != nil {
				log.Fatalf("Error running command %s: %v", cmdName, err)
			}
			return
		}
	}

	log.Fatalf("Unknown command: %s. Use -list to see available commands.", cmdName)
}
