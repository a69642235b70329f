package celery

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// messageHeaders carries task routing metadata (protocol v2 headers frame).
type messageHeaders struct {
	Lang     string `json:"lang"`
	Task     string `json:"task"`
	ID       string `json:"id"`
	RootID   string `json:"root_id"`
	ParentID string `json:"parent_id"`
	Group    string `json:"group"`
}

type deliveryInfo struct {
	Exchange   string `json:"exchange"`
	RoutingKey string `json:"routing_key"`
}

type messageProperties struct {
	CorrelationID string       `json:"correlation_id"`
	ReplyTo       string       `json:"reply_to"`
	DeliveryMode  int          `json:"delivery_mode"`
	DeliveryTag   string       `json:"delivery_tag"`
	DeliveryInfo  deliveryInfo `json:"delivery_info"`
	BodyEncoding  string       `json:"body_encoding"`
	Priority      int          `json:"priority"`
}

// message is the broker envelope pushed onto the queue list.
type message struct {
	Body            string            `json:"body"`
	ContentType     string            `json:"content-type"`
	ContentEncoding string            `json:"content-encoding"`
	Headers         messageHeaders    `json:"headers"`
	Properties      messageProperties `json:"properties"`
}

// encodeMessage builds the protocol v2 envelope for a task invocation.
// The body is the base64 of the JSON triple [args, kwargs, embed].
func encodeMessage(taskID, task, queue string, args []interface{}) (string, error) {
	if args == nil {
		args = []interface{}{}
	}
	body, err := json.Marshal([]interface{}{
		args,
		map[string]interface{}{},
		map[string]interface{}{"callbacks": nil, "errbacks": nil, "chain": nil, "chord": nil},
	})
	if err != nil {
		return "", fmt.Errorf("celery: encode body: %w", err)
	}

	msg := message{
		Body:            base64.StdEncoding.EncodeToString(body),
		ContentType:     "application/json",
		ContentEncoding: "utf-8",
		Headers: messageHeaders{
			Lang:   "go",
			Task:   task,
			ID:     taskID,
			RootID: taskID,
		},
		Properties: messageProperties{
			CorrelationID: taskID,
			ReplyTo:       uuid.NewString(),
			DeliveryMode:  2,
			DeliveryTag:   uuid.NewString(),
			DeliveryInfo:  deliveryInfo{RoutingKey: queue},
			BodyEncoding:  "base64",
		},
	}

	out, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("celery: encode message: %w", err)
	}
	return string(out), nil
}
