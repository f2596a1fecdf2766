package events

import (
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/foodstream/foodstream/utils"
)

// AMQPPublisher mirrors the hub's events onto a topic exchange so external
// consumers (chat-transport bridge, analytics) can subscribe without a
// websocket session. It is an optional second Notifier behind Fanout.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	p := &AMQPPublisher{conn: conn, ch: ch, exchange: "foodstream.events"}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return p, nil
}

func (p *AMQPPublisher) EmitTable(tableToken string, event string, data interface{}) {
	p.publish("table."+tableToken, event, data)
}

func (p *AMQPPublisher) EmitStaff(restaurantID uint, event string, data interface{}) {
	p.publish(fmt.Sprintf("staff.%d", restaurantID), event, data)
}

func (p *AMQPPublisher) publish(routingKey, event string, data interface{}) {
	body, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		utils.ErrorLogger.Printf("events: marshal %s: %v", event, err)
		return
	}

	err = p.ch.Publish(p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		// Delivery is best-effort; the triggering mutation already
		// committed.
		utils.ErrorLogger.Printf("events: publish %s to %s: %v", event, routingKey, err)
	}
}

func (p *AMQPPublisher) Close() error {
	p.ch.Close()
	return p.conn.Close()
}

// Fanout emits to every wrapped notifier in order.
type Fanout []Notifier

func (f Fanout) EmitTable(tableToken string, event string, data interface{}) {
	for _, n := range f {
		n.EmitTable(tableToken, event, data)
	}
}

func (f Fanout) EmitStaff(restaurantID uint, event string, data interface{}) {
	for _, n := range f {
		n.EmitStaff(restaurantID, event, data)
	}
}
