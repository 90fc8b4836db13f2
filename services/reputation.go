package services

import (
	goContext "context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/staszek-kampania/backend/model"
)

// ReputationService tracks per-IP comment quality in the upstream counter
// service (hashed IPs only, no raw addresses leave the process) and applies
// the progressive ban rules. Once the ban flag counter reaches 1 the IP
// stays banned; there is no automatic unban.
type ReputationService struct {
	context.DefaultService

	licznikSvc *LicznikService
	redisSvc   *RedisService

	hashSecret string
}

const REPUTATION_SVC = "reputation_svc"

const banCacheTTL = 24 * time.Hour

func (svc ReputationService) Id() string {
	return REPUTATION_SVC
}

func (svc *ReputationService) Configure(ctx *context.Context) error {
	secret := os.Getenv("ADMIN_TOKEN_SECRET")
	if secret == "" {
		secret = strings.TrimSpace(os.Getenv("LICZNIK_API_KEY"))
		if secret == "" {
			secret = strings.TrimSpace(os.Getenv("API_KEY"))
		}
	}
	svc.hashSecret = secret
	return svc.DefaultService.Configure(ctx)
}

func (svc *ReputationService) Start() error {
	svc.licznikSvc = svc.Service(LICZNIK_SVC).(*LicznikService)
	if redisSvc, ok := svc.Service(REDIS_SVC).(*RedisService); ok && redisSvc.Enabled() {
		svc.redisSvc = redisSvc
	}
	return nil
}

// ShouldBanByAverage implements the progressive thresholds: sustained
// low-quality posting is punished harder than a single bad comment.
// Boundary behavior is deliberate (3 comments at exactly 2.0 bans,
// 2.01 does not).
func ShouldBanByAverage(count int64, avg float64) bool {
	if count <= 0 {
		return false
	}
	if count >= 10 && avg < 5 {
		return true
	}
	if count >= 5 && avg < 4 {
		return true
	}
	if count >= 3 && avg <= 2 {
		return true
	}
	return false
}

// IPHash derives the anonymized identifier stored upstream: the first 16
// hex chars of sha256(secret|ip).
func (svc *ReputationService) IPHash(ip string) string {
	sum := sha256.Sum256([]byte(svc.hashSecret + "|" + ip))
	return hex.EncodeToString(sum[:])[:16]
}

func banCounterName(ipHash string) string {
	return "forum-ban-" + ipHash
}

func moderationCountCounterName(ipHash string) string {
	return "forum-mod-count-" + ipHash
}

func moderationSumCounterName(ipHash string) string {
	return "forum-mod-sum-" + ipHash
}

// IsBanned checks the persistent ban flag for ip. Confirmed bans are cached
// in redis (when configured) because they never flip back.
func (svc *ReputationService) IsBanned(ip string) bool {
	clean := strings.TrimSpace(ip)
	if clean == "" {
		return false
	}

	ipHash := svc.IPHash(clean)
	cacheKey := "ban:" + ipHash

	if svc.redisSvc != nil {
		cached, err := svc.redisSvc.Get(goContext.Background(), cacheKey)
		if err == nil && cached == "1" {
			return true
		}
	}

	cur, ok := svc.licznikSvc.GetInt(banCounterName(ipHash))
	banned := ok && cur >= 1

	if banned && svc.redisSvc != nil {
		if err := svc.redisSvc.Set(goContext.Background(), cacheKey, "1", banCacheTTL); err != nil {
			log.WithError(err).Debug("Failed to cache ban flag")
		}
	}

	return banned
}

// RecordScore folds one moderated comment into the IP's aggregate and
// evaluates the ban decision. Returns the updated reputation; Banned is
// true when the IP is now (or already was) over the threshold.
func (svc *ReputationService) RecordScore(ip string, score int) model.IPReputation {
	clean := strings.TrimSpace(ip)
	if clean == "" {
		return model.IPReputation{}
	}

	if score < 0 {
		score = 0
	} else if score > 9 {
		score = 9
	}

	ipHash := svc.IPHash(clean)
	countName := moderationCountCounterName(ipHash)
	sumName := moderationSumCounterName(ipHash)

	count, ok := svc.licznikSvc.AddInt(countName, 1)
	if !ok {
		count, _ = svc.licznikSvc.GetInt(countName)
	}
	sum, ok := svc.licznikSvc.AddInt(sumName, int64(score))
	if !ok {
		sum, _ = svc.licznikSvc.GetInt(sumName)
	}

	avg := 0.0
	if count > 0 {
		avg = float64(sum) / float64(count)
	}

	rep := model.IPReputation{Count: count, Sum: sum, Average: avg}
	if !ShouldBanByAverage(count, avg) {
		return rep
	}

	rep.Banned = true
	banName := banCounterName(ipHash)
	if cur, ok := svc.licznikSvc.GetInt(banName); !ok || cur < 1 {
		svc.licznikSvc.AddInt(banName, 1)
		bannedIPsTotal.Inc()
		log.WithField("ip_hash", ipHash).
			WithField("count", count).
			WithField("avg", avg).
			Warn("IP banned for sustained low-quality comments")
	}
	if svc.redisSvc != nil {
		if err := svc.redisSvc.Set(goContext.Background(), "ban:"+ipHash, "1", banCacheTTL); err != nil {
			log.WithError(err).Debug("Failed to cache ban flag")
		}
	}

	return rep
}

func forumThreadHash(threadKey string) string {
	sum := sha256.Sum256([]byte(threadKey))
	return hex.EncodeToString(sum[:])[:12]
}

// ForumIPCounterName is the per-(thread, IP) "seen" counter; stays under
// the 128-char name limit.
func (svc *ReputationService) ForumIPCounterName(threadKey, ip string) string {
	return "forum-ip-" + forumThreadHash(threadKey) + "-" + svc.IPHash(ip)
}

func ForumUniqueCounterName(threadKey string) string {
	return "forum-unique-" + forumThreadHash(threadKey)
}

// MarkForumIPSeen bumps the unique-commenter counter the first time an IP
// writes to a thread. Callers run it in a goroutine after a successful
// forum write; failures are logged and discarded, never surfaced.
func (svc *ReputationService) MarkForumIPSeen(threadKey, ip string) {
	clean := strings.TrimSpace(ip)
	if clean == "" {
		return
	}

	ipCounter := svc.ForumIPCounterName(threadKey, clean)
	if cur, ok := svc.licznikSvc.GetInt(ipCounter); ok && cur >= 1 {
		return
	}

	if _, ok := svc.licznikSvc.AddInt(ipCounter, 1); !ok {
		log.WithField("thread", threadKey).Debug("Failed to mark forum IP seen")
		return
	}
	if _, ok := svc.licznikSvc.AddInt(ForumUniqueCounterName(threadKey), 1); !ok {
		log.WithField("thread", threadKey).Debug("Failed to bump unique commenter counter")
	}
}
