package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cloudpost/mailmirror/internal/db"
	"github.com/cloudpost/mailmirror/internal/models"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

type ServerConfig struct {
	Environment string
	// SkipVerification bypasses signature checks. Never honored in
	// production; logs a warning on every bypassed request.
	SkipVerification bool
	// SMSPublicURL is the externally visible URL of the SMS webhook,
	// needed because the SMS provider signs the URL it posted to and
	// the service usually sits behind a proxy.
	SMSPublicURL string
}

// Server owns the inbound webhook endpoints. Signature verification and
// envelope validation happen synchronously; the acknowledgement is sent
// before queue write and dispatch, which run on a tracked goroutine so
// the provider never waits on database latency.
type Server struct {
	syncVerifier *SyncVerifier
	smsVerifier  *SMSVerifier
	events       EventStore
	dispatcher   *Dispatcher
	cfg          ServerConfig
	logger       *logrus.Logger
	processingWg sync.WaitGroup
}

func NewServer(syncVerifier *SyncVerifier, smsVerifier *SMSVerifier, events EventStore, dispatcher *Dispatcher, cfg ServerConfig, logger *logrus.Logger) *Server {
	return &Server{
		syncVerifier: syncVerifier,
		smsVerifier:  smsVerifier,
		events:       events,
		dispatcher:   dispatcher,
		cfg:          cfg,
		logger:       logger,
	}
}

// Routes builds the gin engine with all webhook endpoints.
func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/webhooks/email", s.handleChallenge)
	r.POST("/webhooks/email", s.handleEmailWebhook)
	r.POST("/webhooks/sms", s.handleSMSWebhook)

	return r
}

// handleChallenge answers the provider's verification handshake by
// echoing the challenge query parameter as plain text.
func (s *Server) handleChallenge(c *gin.Context) {
	challenge := c.Query("challenge")
	if challenge == "" {
		c.String(http.StatusBadRequest, "missing challenge")
		return
	}
	c.String(http.StatusOK, challenge)
}

func (s *Server) handleEmailWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	signature := c.GetHeader("X-Nylas-Signature")
	if !s.syncVerifier.Verify(body, signature) {
		if !s.verificationBypassed() {
			s.logger.WithField("remote_addr", c.ClientIP()).Warn("rejecting webhook with invalid signature")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}

	env, err := DecodeEnvelope(body)
	if err != nil {
		s.logger.WithError(err).Warn("rejecting malformed webhook envelope")
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event envelope"})
		return
	}

	// Ack before any storage or downstream I/O. The provider redelivers
	// on slow responses, and every step past here is idempotent.
	c.JSON(http.StatusOK, gin.H{"success": true})

	s.processingWg.Add(1)
	go func() {
		defer s.processingWg.Done()
		s.process(context.Background(), env, body)
	}()
}

// process durably records the event, then dispatches it. Runs after the
// acknowledgement, so failures are logged and swallowed; recovery rides
// on the queued row plus provider redelivery.
func (s *Server) process(ctx context.Context, env Envelope, body []byte) {
	inserted, err := s.events.Enqueue(ctx, models.WebhookEvent{
		ID:         env.ID,
		EventType:  env.Type,
		Payload:    body,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		fields := logrus.Fields{"event_id": env.ID, "event_type": env.Type}
		if db.Classify(err) == db.KindInfrastructure {
			s.logger.WithFields(fields).WithError(err).Error("queue write failed: database unavailable, relying on provider redelivery")
		} else {
			s.logger.WithFields(fields).WithError(err).Error("queue write failed")
		}
		return
	}
	if !inserted {
		s.logger.WithFields(logrus.Fields{
			"event_id":   env.ID,
			"event_type": env.Type,
		}).Info("duplicate event delivery, row already queued")
	}

	s.dispatcher.Dispatch(ctx, env)
}

func (s *Server) handleSMSWebhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "bad form body")
		return
	}

	params := make(map[string]string, len(c.Request.PostForm))
	for k, v := range c.Request.PostForm {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}

	url := s.cfg.SMSPublicURL
	if url == "" {
		url = "https://" + c.Request.Host + c.Request.URL.RequestURI()
	}

	signature := c.GetHeader("X-Twilio-Signature")
	if !s.smsVerifier.Verify(url, params, signature) {
		if !s.verificationBypassed() {
			s.logger.WithField("remote_addr", c.ClientIP()).Warn("rejecting SMS webhook with invalid signature")
			c.String(http.StatusForbidden, "invalid signature")
			return
		}
	}

	sid := params["MessageSid"]
	if sid == "" {
		c.String(http.StatusBadRequest, "missing MessageSid")
		return
	}

	env := Envelope{ID: sid, Type: models.EventSMSReceived}
	payload, err := json.Marshal(params)
	if err != nil {
		c.String(http.StatusBadRequest, "bad parameters")
		return
	}
	env.Data.Object = payload

	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, emptyTwiML)

	s.processingWg.Add(1)
	go func() {
		defer s.processingWg.Done()
		s.process(context.Background(), env, payload)
	}()
}

// verificationBypassed reports whether the dev-only bypass applies.
// Warns on every use so a misconfigured deployment is loud in the logs.
func (s *Server) verificationBypassed() bool {
	if !s.cfg.SkipVerification || s.cfg.Environment == "production" {
		return false
	}
	s.logger.Warn("webhook signature verification skipped via skip_verification flag")
	return true
}

// Drain waits for in-flight background processing to finish, up to
// timeout. Returns true when everything completed.
func (s *Server) Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.processingWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		s.logger.Warn("drain timeout reached, some webhook processing may still be in progress")
		return false
	}
}
