package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/agrisage-labs/agrisage-go/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	communityKey = "content:community_posts"
	marketKey    = "content:market_prices"
	tipsKey      = "content:farming_tips"
)

// ContentStore serves the community feed, market prices and farming tips
// widgets from Redis, seeded at startup. In-code fallbacks keep the widgets
// alive when Redis is down.
type ContentStore struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewContentStore(rdb *redis.Client) *ContentStore {
	return &ContentStore{
		rdb:    rdb,
		logger: zap.L().With(zap.String("component", "content_store")),
	}
}

var seedPosts = []models.CommunityPost{
	{
		ID: 1, Author: "Ramesh Kumar", Location: "Guntur, Andhra Pradesh",
		Timestamp: "2 hours ago",
		Content:   "Neem oil spray cleared the early blight on my tomato crop within two weeks. Sharing in case it helps others.",
		Tags:      []string{"tomato", "organic", "blight"}, Likes: 24, Comments: 7,
	},
	{
		ID: 2, Author: "Lakshmi Devi", Location: "Warangal, Telangana",
		Timestamp: "5 hours ago",
		Content:   "Switched to drip irrigation this season. Water usage is down by almost half and the chilli plants look much healthier.",
		Tags:      []string{"irrigation", "chilli"}, Likes: 41, Comments: 12,
	},
	{
		ID: 3, Author: "Suresh Reddy", Location: "Kurnool, Andhra Pradesh",
		Timestamp: "1 day ago",
		Content:   "Seeing rust-colored pustules on my groundnut leaves. Has anyone treated this with sulfur dust?",
		Tags:      []string{"groundnut", "rust", "help"}, Likes: 9, Comments: 15,
	},
}

var seedMarket = models.MarketPrices{
	Market:  "Guntur Agricultural Market",
	Updated: "Today, 9:00 AM",
	Crops: []models.CropPrice{
		{Name: "Tomato", Price: 28, Unit: "kg", Trend: "up", Change: 3.5},
		{Name: "Potato", Price: 18, Unit: "kg", Trend: "stable", Change: 0},
		{Name: "Onion", Price: 32, Unit: "kg", Trend: "down", Change: -2},
		{Name: "Chilli", Price: 120, Unit: "kg", Trend: "up", Change: 8},
		{Name: "Cotton", Price: 6800, Unit: "quintal", Trend: "stable", Change: 0.5},
		{Name: "Paddy", Price: 2200, Unit: "quintal", Trend: "up", Change: 1.2},
	},
}

var seedTips = []models.Tip{
	{Icon: "droplet", Category: "Irrigation", Tip: "Water at soil level in the early morning to limit evaporation and foliar disease."},
	{Icon: "leaf", Category: "Soil Health", Tip: "Rotate legumes into your cropping cycle to restore soil nitrogen naturally."},
	{Icon: "bug", Category: "Pest Control", Tip: "Yellow sticky traps placed at canopy height catch whiteflies before they spread virus."},
	{Icon: "sun", Category: "Planting", Tip: "Give tomatoes 45x30 cm spacing; crowding invites blight and cuts yield."},
	{Icon: "shield", Category: "Disease", Tip: "Remove and burn infected plant debris instead of composting it."},
	{Icon: "flask", Category: "Fertilizer", Tip: "Use 10-26-26 NPK at flowering; excess nitrogen late in the season favors leaf over fruit."},
	{Icon: "cloud", Category: "Weather", Tip: "Skip pesticide sprays when rain is expected within 24 hours."},
}

// Seed writes the widget datasets. Existing keys are overwritten.
func (s *ContentStore) Seed(ctx context.Context) error {
	if s.rdb == nil {
		return nil
	}
	for key, value := range map[string]interface{}{
		communityKey: seedPosts,
		marketKey:    seedMarket,
		tipsKey:      seedTips,
	} {
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
			return err
		}
	}
	s.logger.Info("Widget content seeded")
	return nil
}

func (s *ContentStore) CommunityPosts(ctx context.Context) []models.CommunityPost {
	var posts []models.CommunityPost
	if s.load(ctx, communityKey, &posts) && len(posts) > 0 {
		return posts
	}
	return seedPosts
}

func (s *ContentStore) MarketPrices(ctx context.Context) models.MarketPrices {
	var prices models.MarketPrices
	if s.load(ctx, marketKey, &prices) && len(prices.Crops) > 0 {
		return prices
	}
	return seedMarket
}

// FarmingTips returns all tips with the tip of the day rotated by
// day-of-year.
func (s *ContentStore) FarmingTips(ctx context.Context) models.FarmingTips {
	tips := seedTips
	var stored []models.Tip
	if s.load(ctx, tipsKey, &stored) && len(stored) > 0 {
		tips = stored
	}

	return models.FarmingTips{
		TipOfDay: tips[time.Now().YearDay()%len(tips)],
		AllTips:  tips,
	}
}

func (s *ContentStore) load(ctx context.Context, key string, out interface{}) bool {
	if s.rdb == nil {
		return false
	}
	data, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Error("Redis lookup failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		s.logger.Warn("Malformed content record", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}
