package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bradykim7/cooknet/internal/models"
	"github.com/bradykim7/cooknet/pkg/config"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const submitTimeout = 5 * time.Second

// Submitter accepts inbound events for processing
type Submitter interface {
	Submit(ctx context.Context, ev models.Event) error
}

// Bot은 Discord 봇을 나타냅니다
type Bot struct {
	session *discordgo.Session
	config  *config.Config
	log     *zap.Logger
	events  Submitter
	ctx     context.Context
}

// NewSession은 새로운 Discord 세션을 생성합니다
func NewSession(cfg *config.Config) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("Discord 세션 생성 오류: %w", err)
	}

	// Intents 설정
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent
	return session, nil
}

// New는 새로운 Bot 인스턴스를 생성합니다. 받은 이벤트는 events로 전달됩니다.
func New(session *discordgo.Session, cfg *config.Config, events Submitter, log *zap.Logger) *Bot {
	bot := &Bot{
		session: session,
		config:  cfg,
		log:     log.Named("bot"),
		events:  events,
		ctx:     context.Background(),
	}

	// 이벤트 핸들러 설정
	session.AddHandler(bot.onReady)
	session.AddHandler(bot.onMessageCreate)
	session.AddHandler(bot.onInteractionCreate)

	return bot
}

// Start는 봇을 시작합니다
func (b *Bot) Start(ctx context.Context) error {
	b.ctx = ctx

	// Discord에 연결
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("Discord 세션 열기 오류: %w", err)
	}

	b.log.Info("봇이 실행 중입니다. 종료하려면 CTRL-C를 누르세요.")

	// 컨텍스트가 취소될 때까지 대기
	<-ctx.Done()

	// 리소스 정리
	return b.Close()
}

// Close는 리소스를 정리합니다
func (b *Bot) Close() error {
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("Discord 세션 닫기 오류: %w", err)
	}
	return nil
}

// onReady는 봇이 준비되었을 때의 이벤트 핸들러입니다
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("봇 로그인 완료",
		zap.String("username", r.User.Username),
		zap.Int("guilds", len(r.Guilds)))

	// 상태 설정
	if err := s.UpdateGameStatus(0, "cooking 🍳 | "+b.config.CommandPrefix+"help"); err != nil {
		b.log.Error("상태 설정 오류", zap.Error(err))
	}
}

// onMessageCreate는 메시지가 생성되었을 때의 이벤트 핸들러입니다
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	selfID := ""
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}

	ev, ok := messageEvent(b.config.CommandPrefix, selfID, m)
	if !ok {
		return
	}

	// 메시지 로깅
	b.log.Debug("메시지 수신됨",
		zap.String("guild_id", m.GuildID),
		zap.String("channel_id", m.ChannelID),
		zap.String("user_id", ev.UserID),
		zap.String("kind", string(ev.Kind)))

	b.submit(ev)
}

// onInteractionCreate handles button presses. The press is acknowledged at
// once; answers go out later as follow-ups.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ev, ok := componentEvent(i)
	if !ok {
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		b.log.Warn("Failed to acknowledge interaction",
			zap.String("custom_id", ev.Payload),
			zap.Error(err))
	}

	b.submit(ev)
}

func (b *Bot) submit(ev models.Event) {
	ctx, cancel := context.WithTimeout(b.ctx, submitTimeout)
	defer cancel()

	if err := b.events.Submit(ctx, ev); err != nil {
		b.log.Error("Failed to queue event",
			zap.String("user_id", ev.UserID),
			zap.String("kind", string(ev.Kind)),
			zap.Error(err))
	}
}
