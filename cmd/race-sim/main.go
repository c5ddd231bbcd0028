// race-sim floods the leaderboard intake topic with plausible race results,
// for load testing the consumer path and populating demo boards.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/typing-racer/internal/domain"
	"github.com/typing-racer/internal/race"
)

var racerPrefixes = []string{
	"Swift", "Blaze", "Turbo", "Dash", "Bolt", "Flash", "Nitro", "Rocket", "Comet", "Zoom",
	"Phoenix", "Shadow", "Thunder", "Storm", "Viper", "Ghost", "Nova", "Raven", "Spark", "Echo",
}

func racerName(rng *rand.Rand) string {
	return fmt.Sprintf("%s%d", racerPrefixes[rng.Intn(len(racerPrefixes))], rng.Intn(99)+1)
}

var difficulties = []domain.Difficulty{
	domain.DifficultyEasy,
	domain.DifficultyMedium,
	domain.DifficultyHard,
	domain.DifficultyExpert,
	domain.DifficultyNightmare,
}

// simClock drives the engine through a simulated race without waiting for
// wall-clock time.
type simClock struct {
	now time.Time
}

func (c *simClock) Now() time.Time { return c.now }

// simulateRace runs one headless race: a typist with a target speed and error
// rate types the full text through the engine, and the engine's own result
// becomes the submission.
func simulateRace(rng *rand.Rand) domain.Submission {
	difficulty := difficulties[rng.Intn(len(difficulties))]
	clock := &simClock{now: time.Now()}
	engine := race.NewEngine(race.Config{
		Difficulty: difficulty,
		Clock:      clock,
		Rand:       rng,
	})

	targetWPM := rng.Intn(80) + 30
	errorRate := rng.Float64() * 0.05
	keyInterval := time.Duration(float64(time.Minute) / float64(targetWPM*5))

	for _, ch := range []rune(engine.Text()) {
		clock.now = clock.now.Add(keyInterval)
		if rng.Float64() < errorRate {
			engine.Type(ch + 1)
		}
		engine.Type(ch)
	}

	result := engine.Result()
	return domain.Submission{
		Name:       racerName(rng),
		WPM:        result.WPM,
		Accuracy:   result.Accuracy,
		Time:       result.Time,
		Difficulty: difficulty,
		Timestamp:  time.Now(),
	}
}

func main() {
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "race-results", "Kafka topic")
	rate := flag.Int("rate", 10, "Races per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	seed := flag.Int64("seed", 0, "Random seed (0 = time-based)")
	flag.Parse()

	brokerList := strings.Split(*brokers, ",")

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	fmt.Printf("Race simulator: brokers=%s topic=%s rate=%d/s\n", *brokers, *topic, *rate)

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}

	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(*rate))
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	shutdown := func() {
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("\nDone. Sent: %d, Errors: %d\n",
			atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	for {
		select {
		case <-sigChan:
			fmt.Println("\nShutting down...")
			shutdown()
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				fmt.Println("\nDuration reached, shutting down...")
				shutdown()
				return
			}

			submission := simulateRace(rng)
			data, err := json.Marshal(submission)
			if err != nil {
				log.Printf("Failed to marshal submission: %v", err)
				continue
			}
			producer.Input() <- &sarama.ProducerMessage{
				Topic: *topic,
				Key:   sarama.StringEncoder(submission.Name),
				Value: sarama.ByteEncoder(data),
			}

		case <-statsTicker.C:
			fmt.Printf("[%s] Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				atomic.LoadInt64(&successCount),
				atomic.LoadInt64(&errorCount),
			)
		}
	}
}
