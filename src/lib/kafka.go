package lib

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

var (
	producer     *kafka.Producer
	producerOnce sync.Mutex
)

var ErrKafkaDisabled = errors.New("kafka broker is not configured")

func GetKafkaProducerConfig(clientId string) kafka.ConfigMap {
	return kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BROKER"),
		"client.id":         clientId,
		"acks":              "all",
	}
}

func getKafkaProducer(clientId string) (*kafka.Producer, error) {
	producerOnce.Lock()
	defer producerOnce.Unlock()
	if producer != nil {
		return producer, nil
	}
	if os.Getenv("KAFKA_BROKER") == "" {
		return nil, ErrKafkaDisabled
	}
	cfg := GetKafkaProducerConfig(clientId)
	p, err := kafka.NewProducer(&cfg)
	if err != nil {
		log.Printf("Error on producer: %s\n", err.Error())
		return nil, err
	}
	go func() {
		for e := range p.Events() {
			if m, ok := e.(*kafka.Message); ok && m.TopicPartition.Error != nil {
				log.Printf("[kafka] Delivery failed: %s\n", m.TopicPartition.Error.Error())
			}
		}
	}()
	producer = p
	return p, nil
}

func KafkaProduceMessage(clientId string, topic string, payload any) error {
	p, err := getKafkaProducer(clientId)
	if err != nil {
		return err
	}
	value, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[kafka] Error encoding payload: %s\n", err.Error())
		return err
	}
	err = p.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          value,
	}, nil)
	if err != nil {
		log.Printf("[kafka] Error sending to %s: %s\n", topic, err.Error())
		return err
	}
	return nil
}

// KafkaClose flushes pending messages before shutdown.
func KafkaClose() {
	producerOnce.Lock()
	defer producerOnce.Unlock()
	if producer == nil {
		return
	}
	producer.Flush(5000)
	producer.Close()
	producer = nil
}

func KafkaCreateTopics(topics ...string) ([]kafka.TopicResult, error) {
	if os.Getenv("KAFKA_BROKER") == "" {
		return nil, ErrKafkaDisabled
	}
	a, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": os.Getenv("KAFKA_BROKER"),
	})
	if err != nil {
		log.Printf("Error on AdminClient: %s\n", err.Error())
		return nil, err
	}
	defer a.Close()
	topicsDef := []kafka.TopicSpecification{}
	for _, topic := range topics {
		topicsDef = append(topicsDef, kafka.TopicSpecification{
			Topic:             topic,
			NumPartitions:     3,
			ReplicationFactor: 1,
		})
	}
	result, err := a.CreateTopics(context.Background(), topicsDef)
	if err != nil {
		log.Printf("Error creating topics: %s\n", err.Error())
		return nil, err
	}
	return result, nil
}
