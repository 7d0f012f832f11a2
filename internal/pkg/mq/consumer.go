/**
 * RabbitMQ消费端
 * @author: sun977
 * @date: 2025.11.09
 * @description: 入站消息通道，负责连接、拓扑声明与队列订阅
 */
package mq

import (
	"context"
	"fmt"

	"neoinspect/internal/config"
	"neoinspect/internal/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// MessageHandler 消息处理函数
// 返回nil时消息被确认，返回错误时消息被拒绝且不重新入队
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer RabbitMQ消费端
// 持有一条连接和一个信道，所有队列订阅共用
type Consumer struct {
	cfg     *config.RabbitMQConfig
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewConsumer 创建消费端并声明消息拓扑
// 连接失败直接返回错误，入站通道不可用时服务不应启动
func NewConsumer(cfg *config.RabbitMQConfig) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.GetAMQPURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	c := &Consumer{
		cfg:     cfg,
		conn:    conn,
		channel: channel,
	}

	if err := c.declareTopology(); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

// declareTopology 声明全部交换机、队列和绑定
func (c *Consumer) declareTopology() error {
	bindings := append([]config.QueueBinding{c.cfg.OrderUpdate}, c.cfg.TaskStart...)

	for _, binding := range bindings {
		if err := c.declareBinding(binding); err != nil {
			return err
		}
	}

	return nil
}

// declareBinding 声明单条绑定
// 交换机名为空时直接使用默认交换机，只声明队列
func (c *Consumer) declareBinding(binding config.QueueBinding) error {
	if binding.Exchange != "" {
		exchangeType := binding.ExchangeType
		if exchangeType == "" {
			exchangeType = "direct"
		}
		if err := c.channel.ExchangeDeclare(
			binding.Exchange, // name
			exchangeType,     // kind
			true,             // durable
			false,            // autoDelete
			false,            // internal
			false,            // noWait
			nil,              // args
		); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", binding.Exchange, err)
		}
	}

	if _, err := c.channel.QueueDeclare(
		binding.Queue, // name
		true,          // durable
		false,         // autoDelete
		false,         // exclusive
		false,         // noWait
		nil,           // args
	); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", binding.Queue, err)
	}

	if binding.Exchange != "" {
		if err := c.channel.QueueBind(
			binding.Queue,      // queue
			binding.RoutingKey, // key
			binding.Exchange,   // exchange
			false,              // noWait
			nil,                // args
		); err != nil {
			return fmt.Errorf("failed to bind queue %s to exchange %s: %w", binding.Queue, binding.Exchange, err)
		}
	}

	return nil
}

// Subscribe 订阅指定队列，消息交给handler处理
// 阻塞在独立协程中运行，ctx取消或信道关闭时退出
func (c *Consumer) Subscribe(ctx context.Context, binding config.QueueBinding, handler MessageHandler) error {
	deliveries, err := c.channel.Consume(
		binding.Queue, // queue
		"",            // consumer tag
		false,         // autoAck
		false,         // exclusive
		false,         // noLocal
		false,         // noWait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("failed to consume queue %s: %w", binding.Queue, err)
	}

	go c.consumeLoop(ctx, binding.Queue, deliveries, handler)

	logger.LogSystemEvent("mq", "subscribe", fmt.Sprintf("subscribed to queue %s", binding.Queue),
		logrus.InfoLevel, map[string]interface{}{"queue": binding.Queue})

	return nil
}

// consumeLoop 消费循环
func (c *Consumer) consumeLoop(ctx context.Context, queue string, deliveries <-chan amqp.Delivery, handler MessageHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				// 信道关闭，可能是连接断开
				logger.LogSystemEvent("mq", "channel_closed",
					fmt.Sprintf("delivery channel closed for queue %s", queue),
					logrus.ErrorLevel, map[string]interface{}{"queue": queue})
				return
			}

			if err := handler(ctx, delivery.Body); err != nil {
				logger.LogError(err, "mq", "handle_message", map[string]interface{}{
					"queue": queue,
				})
				// 处理失败不重新入队，避免毒消息循环
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					logger.LogError(nackErr, "mq", "nack_message", map[string]interface{}{
						"queue": queue,
					})
				}
				continue
			}

			if ackErr := delivery.Ack(false); ackErr != nil {
				logger.LogError(ackErr, "mq", "ack_message", map[string]interface{}{
					"queue": queue,
				})
			}
		}
	}
}

// NotifyClose 返回连接关闭通知通道
// 调用方可据此感知连接断开并决定退出或重连
func (c *Consumer) NotifyClose() <-chan *amqp.Error {
	return c.conn.NotifyClose(make(chan *amqp.Error, 1))
}

// Close 关闭信道和连接
func (c *Consumer) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
