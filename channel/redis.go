package channel

import (
	"sync"

	"github.com/go-redis/redis"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RedisLayer is a Layer backed by Redis pub/sub, grounded on the
// single-channel-per-concern broadcast pattern used by Socket.IO's Redis
// adapters: every subscriber receives every message published to a topic,
// and each message is stamped with the publishing instance's id. A
// RedisLayer drops messages carrying its own id on receipt, so its
// subscribers never see this instance's own publishes.
type RedisLayer struct {
	client     *redis.Client
	instanceID string
	logger     *logrus.Logger

	mu   sync.Mutex
	subs map[string]*redisSub
}

type redisSub struct {
	pubsub *redis.PubSub
	out    chan []byte
	done   chan struct{}
}

// RedisLayerOptions mirrors the handful of go-redis options a deployment
// actually tends to set, rather than exposing the full redis.Options.
type RedisLayerOptions struct {
	Addr     string
	Password string
	DB       int
	Logger   *logrus.Logger
}

func NewRedisLayer(opts RedisLayerOptions) (*RedisLayer, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping().Err(); err != nil {
		return nil, errors.Wrap(err, "channel: could not reach redis")
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, errors.Wrap(err, "channel: could not generate instance id")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}

	return &RedisLayer{
		client:     client,
		instanceID: id.String(),
		logger:     logger,
		subs:       make(map[string]*redisSub),
	}, nil
}

func (l *RedisLayer) Publish(topic string, payload []byte) error {
	env := envelope{InstanceID: l.instanceID, Payload: payload}
	data, err := encodeEnvelope(env)
	if err != nil {
		return errors.Wrap(err, "channel: encode envelope")
	}

	if err := l.client.Publish(topic, data).Err(); err != nil {
		l.logger.WithError(err).WithField("topic", topic).Error("channel: redis publish failed")
		return errors.Wrap(err, "channel: redis publish")
	}
	return nil
}

func (l *RedisLayer) Subscribe(topic string) (<-chan []byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s, ok := l.subs[topic]; ok {
		return s.out, nil
	}

	pubsub := l.client.Subscribe(topic)
	if _, err := pubsub.Receive(); err != nil {
		return nil, errors.Wrapf(err, "channel: subscribe to %s", topic)
	}

	s := &redisSub{
		pubsub: pubsub,
		out:    make(chan []byte, 256),
		done:   make(chan struct{}),
	}
	l.subs[topic] = s

	go l.listen(topic, s)

	return s.out, nil
}

func (l *RedisLayer) listen(topic string, s *redisSub) {
	ch := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			env, err := decodeEnvelope([]byte(msg.Payload))
			if err != nil {
				l.logger.WithError(err).WithField("topic", topic).Warn("channel: dropping malformed envelope")
				continue
			}
			if env.InstanceID == l.instanceID {
				continue // our own publish, already delivered locally
			}
			select {
			case s.out <- env.Payload:
			default:
				l.logger.WithField("topic", topic).Warn("channel: subscriber channel full, dropping message")
			}
		}
	}
}

func (l *RedisLayer) Unsubscribe(topic string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.subs[topic]
	if !ok {
		return
	}
	close(s.done)
	s.pubsub.Close()
	close(s.out)
	delete(l.subs, topic)
}

func (l *RedisLayer) Close() error {
	l.mu.Lock()
	topics := make([]string, 0, len(l.subs))
	for topic := range l.subs {
		topics = append(topics, topic)
	}
	l.mu.Unlock()

	for _, topic := range topics {
		l.Unsubscribe(topic)
	}
	return l.client.Close()
}
