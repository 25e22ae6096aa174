package rabbit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const sessionExchange = "session.events"

// Routing keys on the session.events topic exchange.
const (
	sessionStartKey = "session.start"
	sessionEndKey   = "session.end"
)

// Publisher mirrors session lifecycle events to RabbitMQ so sibling services
// (analytics, notifications) can react without touching the engine. All
// publishes are fire-and-forget: a broker failure is logged and the live
// session carries on.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := channel.ExchangeDeclare(sessionExchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, channel: channel}, nil
}

func (p *Publisher) SessionStarted(quizID string) {
	p.publish(sessionStartKey, map[string]string{"quizId": quizID})
}

func (p *Publisher) QuestionStarted(quizID, questionID string) {
	p.publish("question."+quizID+".start", map[string]string{
		"quizId":     quizID,
		"questionId": questionID,
	})
}

func (p *Publisher) SessionEnded(quizID string) {
	p.publish(sessionEndKey, map[string]string{"quizId": quizID})
}

func (p *Publisher) publish(routingKey string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("rabbit: marshal %s event: %v", routingKey, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = p.channel.PublishWithContext(ctx, sessionExchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	})
	if err != nil {
		log.Printf("rabbit: publish %s: %v", routingKey, err)
	}
}

func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
