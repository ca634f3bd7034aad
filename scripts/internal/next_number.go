package internal

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shipdesk/shipdesk/internal/service"
	"github.com/shipdesk/shipdesk/internal/types"
)

// NextNumber issues, or with PEEK=true previews, the next document number of SERIES.
// PERIOD_KEY defaults to the current year.
func NextNumber() error {
	name := os.Getenv("SERIES")
	known := types.KnownSeries()
	series, ok := known[name]
	if !ok {
		names := lo.Keys(known)
		sort.Strings(names)
		return fmt.Errorf("unknown series %q, expected one of %s", name, strings.Join(names, ", "))
	}

	periodKey := os.Getenv("PERIOD_KEY")
	if periodKey == "" {
		periodKey = types.YearPeriodKey(time.Now())
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx := context.Background()
	sequences := service.NewSequenceService(rt.params)

	peek := os.Getenv("PEEK") == "true"
	if peek {
		log.Println("🔍 PEEK MODE - The number will not be consumed")
	}

	allocate := sequences.Allocate
	if peek {
		allocate = sequences.Peek
	}

	allocation, err := allocate(ctx, series, periodKey)
	if err != nil {
		return err
	}
	if !allocation.Available() {
		log.Printf("⚠️ series %s is not provisioned in %s.%s", series.Name, series.Table, series.Column)
	} else if allocation.Degraded() {
		log.Printf("⚠️ store unavailable, issued a fallback number")
	}

	return printJSON(allocation)
}
