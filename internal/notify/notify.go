package notify

import "go.uber.org/zap"

// Notifier 面向用户的提示出口（toast协作方）。
// 核心只发不等，不消费返回值。
type Notifier interface {
	Success(title, description string)
	Error(title, description string)
	Info(title, description string)
}

// SoundCue 音效类别
type SoundCue string

const (
	CueMine        SoundCue = "mine"
	CueCraft       SoundCue = "craft"
	CueTransaction SoundCue = "transaction"
	CueAchievement SoundCue = "achievement"
)

// SoundPlayer 音效协作方，核心只发不等
type SoundPlayer interface {
	Play(cue SoundCue)
}

// ZapNotifier 把提示写入日志的默认实现
type ZapNotifier struct {
	log *zap.Logger
}

// NewZapNotifier 创建日志提示器
func NewZapNotifier(log *zap.Logger) *ZapNotifier {
	return &ZapNotifier{log: log}
}

func (n *ZapNotifier) Success(title, description string) {
	n.log.Info("toast", zap.String("level", "success"), zap.String("title", title), zap.String("description", description))
}

func (n *ZapNotifier) Error(title, description string) {
	n.log.Warn("toast", zap.String("level", "error"), zap.String("title", title), zap.String("description", description))
}

func (n *ZapNotifier) Info(title, description string) {
	n.log.Info("toast", zap.String("level", "info"), zap.String("title", title), zap.String("description", description))
}

// ZapSoundPlayer 把音效请求写入日志的默认实现
type ZapSoundPlayer struct {
	log *zap.Logger
}

// NewZapSoundPlayer 创建日志音效器
func NewZapSoundPlayer(log *zap.Logger) *ZapSoundPlayer {
	return &ZapSoundPlayer{log: log}
}

func (p *ZapSoundPlayer) Play(cue SoundCue) {
	p.log.Debug("sound", zap.String("cue", string(cue)))
}

// NopNotifier 丢弃全部提示（测试用）
type NopNotifier struct{}

func (NopNotifier) Success(string, string) {}
func (NopNotifier) Error(string, string)   {}
func (NopNotifier) Info(string, string)    {}

// NopSoundPlayer 丢弃全部音效（测试用）
type NopSoundPlayer struct{}

func (NopSoundPlayer) Play(SoundCue) {}
