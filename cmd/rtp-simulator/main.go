package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/slotmachine/cluster-engine/internal/game/config"
	"github.com/slotmachine/cluster-engine/internal/game/rng"
	"github.com/slotmachine/cluster-engine/internal/game/round"
	"github.com/slotmachine/cluster-engine/internal/pkg/logger"
)

// stats accumulates everything the report needs across every worker's
// rounds. Each worker owns its own stats and merges into a shared
// total under mu; no field is touched per-round across goroutines.
type stats struct {
	mu sync.Mutex

	TotalSpins   int
	TotalWagered float64
	TotalWon     float64

	BaseGameTotalWon  float64
	FreeSpinsTotalWon float64

	FreeSpinsTriggered   int
	FreeSpinsRetriggered int
	TotalFreeSpins       int
	FreeSpinsAwardedSum  int

	MaxWin     float64
	MaxWinSpin int

	NoWinSpins int
	SmallWins  int // < 5x bet
	MediumWins int // 5x-20x bet
	BigWins    int // 20x-100x bet
	MegaWins   int // > 100x bet

	TotalCascades int
	MaxCascades   int

	TotalExplosions  int
	EWCollectedTotal int

	MaxWinCapHits int
}

func (s *stats) merge(other *stats) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalSpins += other.TotalSpins
	s.TotalWagered += other.TotalWagered
	s.TotalWon += other.TotalWon
	s.BaseGameTotalWon += other.BaseGameTotalWon
	s.FreeSpinsTotalWon += other.FreeSpinsTotalWon
	s.FreeSpinsTriggered += other.FreeSpinsTriggered
	s.FreeSpinsRetriggered += other.FreeSpinsRetriggered
	s.TotalFreeSpins += other.TotalFreeSpins
	s.FreeSpinsAwardedSum += other.FreeSpinsAwardedSum
	if other.MaxWin > s.MaxWin {
		s.MaxWin = other.MaxWin
		s.MaxWinSpin = other.MaxWinSpin
	}
	s.NoWinSpins += other.NoWinSpins
	s.SmallWins += other.SmallWins
	s.MediumWins += other.MediumWins
	s.BigWins += other.BigWins
	s.MegaWins += other.MegaWins
	s.TotalCascades += other.TotalCascades
	if other.MaxCascades > s.MaxCascades {
		s.MaxCascades = other.MaxCascades
	}
	s.TotalExplosions += other.TotalExplosions
	s.EWCollectedTotal += other.EWCollectedTotal
	s.MaxWinCapHits += other.MaxWinCapHits
}

func main() {
	numSpins := flag.Int("spins", 1000000, "Number of rounds to simulate")
	betAmount := flag.Float64("bet", 1.0, "Base bet per round")
	workers := flag.Int("workers", runtime.NumCPU(), "Concurrent simulation workers")
	baseSeed := flag.Uint64("seed", 1, "Base seed; each round draws from baseSeed+roundIndex")
	progressInterval := flag.Int("progress", 100000, "Progress report interval")
	targetRTP := flag.Float64("target-rtp", 96.7, "Target RTP, for the report's pass/fail indicator")
	betPlusFlag := flag.Int("bet-plus", 0, "BetPlus modifier: 0=none, 1=x1.5, 2=x2, 3=x3")
	featureBuy := flag.Bool("feature-buy", false, "Simulate feature-buy rounds instead of base-game rounds")
	logLevel := flag.String("log-level", "disabled", "Per-round cascade/explosion/free-spins event log level (disabled, debug, info, warn, error)")
	logFormat := flag.String("log-format", "json", "Log output format: json or console")
	flag.Parse()

	var roundLogger *zerolog.Logger
	if *logLevel != "disabled" {
		roundLogger = logger.New(*logLevel, *logFormat).GetZerolog()
	}

	fmt.Println("╔════════════════════════════════════════════════════════════╗")
	fmt.Println("║         CLUSTER ENGINE RTP SIMULATOR                      ║")
	fmt.Println("╚════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Rounds:       %d\n", *numSpins)
	fmt.Printf("  Bet Amount:   %.2f\n", *betAmount)
	fmt.Printf("  Workers:      %d\n", *workers)
	fmt.Printf("  Base Seed:    %d\n", *baseSeed)
	fmt.Printf("  Target RTP:   %.2f%%\n", *targetRTP)
	fmt.Printf("  Feature Buy:  %v\n", *featureBuy)
	fmt.Printf("  Log Level:    %s\n", *logLevel)
	fmt.Println()

	cfg := config.DefaultConfig()
	opts := round.Options{BaseBet: *betAmount, BetPlus: config.BetPlus(*betPlusFlag)}
	if *featureBuy {
		opts.Mode = round.FeatureBuy
	}

	fmt.Println("Starting simulation...")
	fmt.Println()

	total := &stats{}
	var nextRound int64 = -1
	startTime := time.Now()

	g := new(errgroup.Group)
	for w := 0; w < *workers; w++ {
		g.Go(func() error {
			local := &stats{}
			for {
				idx := atomic.AddInt64(&nextRound, 1)
				if idx >= int64(*numSpins) {
					total.merge(local)
					return nil
				}

				seed := *baseSeed + uint64(idx)
				stream := rng.NewHKDFStreamRNG(seed)
				result, err := round.Run(cfg, stream, opts, roundLogger)
				if err != nil {
					return fmt.Errorf("round %d (seed %d): %w", idx, seed, err)
				}

				recordRound(local, result, *betAmount, int(idx)+1)

				if (idx+1)%int64(*progressInterval) == 0 {
					elapsed := time.Since(startTime)
					rate := float64(idx+1) / elapsed.Seconds()
					fmt.Printf("Progress: %d/%d rounds | %.0f rounds/sec\n", idx+1, *numSpins, rate)
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "simulation failed: %v\n", err)
		os.Exit(1)
	}

	printResults(total, *betAmount, *targetRTP)
}

func recordRound(s *stats, r *round.RoundResult, betAmount float64, roundNumber int) {
	s.TotalSpins++
	s.TotalWagered += betAmount
	s.TotalWon += r.TotalWinUnits

	baseWin := r.TotalWinUnits
	if r.FreeSpinSession != nil {
		baseWin -= r.FreeSpinSession.SessionWin
		s.FreeSpinsTotalWon += r.FreeSpinSession.SessionWin
		s.FreeSpinsTriggered++
		s.TotalFreeSpins += r.FreeSpinSession.SpinsCompleted
		s.EWCollectedTotal += r.FreeSpinSession.EWCollectedTotal
	}
	s.BaseGameTotalWon += baseWin

	if r.TotalWinUnits > s.MaxWin {
		s.MaxWin = r.TotalWinUnits
		s.MaxWinSpin = roundNumber
	}
	if r.MaxWinHit {
		s.MaxWinCapHits++
	}

	winMultiplier := r.TotalWinUnits / betAmount
	switch {
	case r.TotalWinUnits == 0:
		s.NoWinSpins++
	case winMultiplier < 5:
		s.SmallWins++
	case winMultiplier < 20:
		s.MediumWins++
	case winMultiplier < 100:
		s.BigWins++
	default:
		s.MegaWins++
	}

	s.TotalCascades += len(r.Cascades)
	if len(r.Cascades) > s.MaxCascades {
		s.MaxCascades = len(r.Cascades)
	}
	for _, c := range r.Cascades {
		if c.ExplosionOccurred {
			s.TotalExplosions++
		}
	}
}

func printResults(s *stats, betAmount float64, targetRTP float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Println()
	fmt.Println("╔════════════════════════════════════════════════════════════╗")
	fmt.Println("║                    SIMULATION RESULTS                      ║")
	fmt.Println("╚════════════════════════════════════════════════════════════╝")
	fmt.Println()

	rtp := 0.0
	baseRTP := 0.0
	freeRTP := 0.0
	if s.TotalWagered > 0 {
		rtp = s.TotalWon / s.TotalWagered * 100
		baseRTP = s.BaseGameTotalWon / s.TotalWagered * 100
		freeRTP = s.FreeSpinsTotalWon / s.TotalWagered * 100
	}

	fmt.Println("═══ OVERALL STATISTICS ═══")
	fmt.Printf("Total Rounds:          %d\n", s.TotalSpins)
	fmt.Printf("Total Wagered:         %.2f\n", s.TotalWagered)
	fmt.Printf("Total Won:             %.2f\n", s.TotalWon)
	fmt.Printf("RTP:                   %.4f%% ", rtp)

	diff := rtp - targetRTP
	switch {
	case diff > -0.3 && diff < 0.3:
		fmt.Printf("✓ (target: %.2f%%)\n", targetRTP)
	case diff > -1.0 && diff < 1.0:
		fmt.Printf("⚠ (target: %.2f%%, diff: %+.2f%%)\n", targetRTP, diff)
	default:
		fmt.Printf("✗ (target: %.2f%%, diff: %+.2f%%)\n", targetRTP, diff)
	}
	fmt.Println()

	fmt.Println("═══ HIT FREQUENCY ═══")
	totalWinSpins := s.SmallWins + s.MediumWins + s.BigWins + s.MegaWins
	if s.TotalSpins > 0 {
		fmt.Printf("Winning Rounds:        %d (%.2f%%)\n", totalWinSpins, float64(totalWinSpins)/float64(s.TotalSpins)*100)
		fmt.Printf("No Win:                %d (%.2f%%)\n", s.NoWinSpins, float64(s.NoWinSpins)/float64(s.TotalSpins)*100)
		fmt.Printf("Small Wins (<5x):      %d (%.2f%%)\n", s.SmallWins, float64(s.SmallWins)/float64(s.TotalSpins)*100)
		fmt.Printf("Medium Wins (5-20x):   %d (%.2f%%)\n", s.MediumWins, float64(s.MediumWins)/float64(s.TotalSpins)*100)
		fmt.Printf("Big Wins (20-100x):    %d (%.2f%%)\n", s.BigWins, float64(s.BigWins)/float64(s.TotalSpins)*100)
		fmt.Printf("Mega Wins (>100x):     %d (%.2f%%)\n", s.MegaWins, float64(s.MegaWins)/float64(s.TotalSpins)*100)
	}
	fmt.Println()

	fmt.Println("═══ BASE GAME ═══")
	fmt.Printf("Base Game RTP:         %.4f%%\n", baseRTP)
	if s.TotalSpins > 0 {
		fmt.Printf("Avg Cascades/Round:    %.2f\n", float64(s.TotalCascades)/float64(s.TotalSpins))
	}
	fmt.Printf("Max Cascades:          %d\n", s.MaxCascades)
	fmt.Printf("Total Explosions:      %d\n", s.TotalExplosions)
	fmt.Println()

	fmt.Println("═══ FREE SPINS ═══")
	if s.TotalSpins > 0 {
		fmt.Printf("Triggered:             %d times (%.4f%%)\n", s.FreeSpinsTriggered, float64(s.FreeSpinsTriggered)/float64(s.TotalSpins)*100)
	}
	fmt.Printf("Total Free Spins Run:  %d\n", s.TotalFreeSpins)
	fmt.Printf("EW Collected Total:    %d\n", s.EWCollectedTotal)
	fmt.Printf("Free Spins RTP:        %.4f%%\n", freeRTP)
	fmt.Println()

	fmt.Println("═══ MAX WIN ═══")
	maxWinMultiplier := 0.0
	if betAmount > 0 {
		maxWinMultiplier = s.MaxWin / betAmount
	}
	fmt.Printf("Max Win:               %.2f (%.1fx bet)\n", s.MaxWin, maxWinMultiplier)
	fmt.Printf("Occurred at Round:     %d\n", s.MaxWinSpin)
	fmt.Printf("Max-Win Cap Hits:      %d\n", s.MaxWinCapHits)
	fmt.Println()

	fmt.Println("═══ VOLATILITY INDICATORS ═══")
	if totalWinSpins > 0 {
		avgWin := s.TotalWon / float64(totalWinSpins)
		fmt.Printf("Average Win:           %.2f (%.2fx bet)\n", avgWin, avgWin/betAmount)
		fmt.Printf("Max/Avg Win Ratio:     %.1fx\n", s.MaxWin/avgWin)
	}
	volatility := "MEDIUM"
	if maxWinMultiplier > 500 {
		volatility = "HIGH"
	} else if maxWinMultiplier < 100 {
		volatility = "LOW"
	}
	fmt.Printf("Volatility:            %s\n", volatility)
	fmt.Println()
}
