package main

import (
	"encoding/json"
	"flag"
	"log"
	"time"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"stockops/internal/notify"
	"stockops/internal/status"
)

// statuswatch tails the status-change topic so operators can follow
// fulfillment in real time, mirroring each event into a local journal.
func main() {
	var (
		bootstrap  string
		groupID    string
		topic      string
		journalDir string
	)
	flag.StringVar(&bootstrap, "bootstrap", "localhost:9092", "kafka bootstrap servers")
	flag.StringVar(&groupID, "group-id", "statuswatch", "consumer group id")
	flag.StringVar(&topic, "topic", "stockops.order-status", "status-change topic")
	flag.StringVar(&journalDir, "journal-dir", "./journal", "local journal directory")
	flag.Parse()

	journal, err := notify.NewFileWriter(journalDir, "statuswatch.jsonl")
	if err != nil {
		log.Fatalf("journal: %v", err)
	}

	c, err := ck.NewConsumer(&ck.ConfigMap{
		"bootstrap.servers": bootstrap,
		"group.id":          groupID,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		log.Fatalf("consumer: %v", err)
	}
	defer c.Close()

	if err := c.SubscribeTopics([]string{topic}, nil); err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	log.Printf("statuswatch started bootstrap=%s topic=%s group=%s", bootstrap, topic, groupID)

	for {
		msg, err := c.ReadMessage(10 * time.Second)
		if err != nil {
			// Timeouts just mean a quiet topic.
			continue
		}

		var ev notify.Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Printf("skip malformed event offset=%v err=%v", msg.TopicPartition.Offset, err)
			continue
		}
		if _, err := status.Parse(ev.To); err != nil {
			log.Printf("skip event with unknown status order=%s to=%q", ev.OrderID, ev.To)
			continue
		}

		log.Printf("order=%s %s -> %s at=%d progress=%d%%",
			ev.OrderID, ev.From, ev.To, ev.At, status.Progress(status.Status(ev.To)))
		if err := journal.Append(ev); err != nil {
			log.Printf("journal append failed order=%s err=%v", ev.OrderID, err)
		}
	}
}
