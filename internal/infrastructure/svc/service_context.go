package svc

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"tickboard/internal/application/port"
	"tickboard/internal/application/service"
	"tickboard/internal/domain"
	"tickboard/internal/infrastructure/config"
	"tickboard/internal/infrastructure/feed"
	redisrepo "tickboard/internal/infrastructure/storage/redis"
	"tickboard/internal/infrastructure/supervisor"
	"tickboard/internal/infrastructure/syncer"
	"tickboard/internal/interfaces/console"

	// feed 自注册
	_ "tickboard/internal/infrastructure/feed/alpha"
	_ "tickboard/internal/infrastructure/feed/binance"
	_ "tickboard/internal/infrastructure/feed/bitget"
	_ "tickboard/internal/infrastructure/feed/gecko"
	_ "tickboard/internal/infrastructure/feed/metals"
	_ "tickboard/internal/infrastructure/feed/mexc"
	_ "tickboard/internal/infrastructure/feed/okx"
	_ "tickboard/internal/infrastructure/feed/tencent"
	postgresrepo "tickboard/internal/infrastructure/storage/postgres"
	sqliterepo "tickboard/internal/infrastructure/storage/sqlite"
)

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	// 基础设施层（第一层初始化）
	redisClient *redisclient.Client
	mirror      port.PriceMirror
	store       port.WatchlistStore

	// 应用业务组件（依赖基础设施）
	Router     *service.Router
	Sink       *console.Sink
	Supervisor *supervisor.Supervisor
	Watchlist  *service.Watchlist
	Syncer     *syncer.Client

	// 资源管理
	closerChain []func() error
}

// New 创建并初始化 ServiceContext
// 这是应用启动的唯一入口点，所有依赖初始化都在这里完成
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		closerChain: make([]func() error, 0),
	}

	if err := sc.initializeComponents(); err != nil {
		// 清理已初始化的资源
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

// initializeComponents 按依赖顺序初始化所有应用组件
func (sc *ServiceContext) initializeComponents() error {
	if err := sc.initializeStorage(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInitFailed, err)
	}

	// router 先于 sink 创建，渲染回调经闭包晚绑定
	var sink *console.Sink
	sc.Router = service.NewRouter(sc.Ctx, func(symbol string) {
		sink.Notify(symbol)
	}, sc.mirror)
	sink = console.NewSink(sc.Router)
	sc.Sink = sink

	feeds, err := sc.buildFeeds()
	if err != nil {
		return err
	}
	sc.Supervisor = supervisor.New(feeds, sc.Router)
	sc.Watchlist = service.NewWatchlist(sc.store, sc.Supervisor)

	if sc.Config.Sync.Enabled {
		sc.Syncer = syncer.New(sc.Config.Sync.URL, sc.Config.Sync.Password)
	}

	log.Info().Int("feeds", len(feeds)).Msg("✓ All components initialized")
	return nil
}

// initializeStorage 初始化存储层 (watchlist 存储与可选 Redis 镜像)
func (sc *ServiceContext) initializeStorage() error {
	switch sc.Config.Store.Backend {
	case "postgres":
		repo, err := postgresrepo.New(sc.Config.Store.PostgresDSN)
		if err != nil {
			return fmt.Errorf("postgres repo creation failed: %w", err)
		}
		sc.store = repo
		sc.closerChain = append(sc.closerChain, func() error {
			log.Info().Msg("closing postgres connection")
			return repo.Close()
		})
		log.Info().Msg("✓ Postgres initialized")
	default:
		repo, err := sqliterepo.New(sc.Config.App.DBPath)
		if err != nil {
			return fmt.Errorf("sqlite repo creation failed: %w", err)
		}
		sc.store = repo
		sc.closerChain = append(sc.closerChain, func() error {
			log.Info().Msg("closing sqlite connection")
			return repo.Close()
		})
		log.Info().Str("path", sc.Config.App.DBPath).Msg("✓ SQLite initialized")
	}

	if sc.Config.Redis.Enabled {
		if err := sc.initRedis(); err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
	}
	return nil
}

// initRedis 初始化 Redis 连接并挂上最新价镜像
func (sc *ServiceContext) initRedis() error {
	rdb := redisclient.NewClient(&redisclient.Options{
		Addr: sc.Config.Redis.Addr,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(sc.Ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	sc.redisClient = rdb
	ttl := time.Duration(sc.Config.Redis.TTLSec) * time.Second
	sc.mirror = redisrepo.New(rdb, sc.Config.Redis.Prefix, ttl, sc.Config.Redis.PubChan)

	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().Str("addr", sc.Config.Redis.Addr).Msg("✓ Redis initialized")
	return nil
}

// buildFeeds 用注册表为每个分组构造 feed
func (sc *ServiceContext) buildFeeds() (map[string]port.Feed, error) {
	f := sc.Config.Feeds
	opts := map[string]feed.Options{
		domain.SourceBinance: {WSURL: f.Binance.WsURL},
		domain.SourceOKX:     {WSURL: f.OKX.WsURL},
		domain.SourceBitget:  {WSURL: f.Bitget.WsURL},
		domain.SourceMEXC:    {RESTURL: f.MEXC.RestURL},
		domain.SourceAlpha:   {RESTURL: f.Alpha.ListURL},
		domain.SourceMeme:    {RESTURL: f.Meme.RestURL},
		domain.GroupStock:    {RESTURL: f.Stock.RestURL},
		domain.SourceMetal:   {RESTURL: f.Metal.RestURL, APIBase: f.Metal.APIBase, APIKey: f.Metal.APIKey},
	}

	feeds := make(map[string]port.Feed, len(opts))
	for group, o := range opts {
		factory, ok := feed.Get(group)
		if !ok {
			log.Warn().Str("group", group).Msg("feed factory missing")
			continue
		}
		feeds[group] = factory(o)
	}
	if len(feeds) == 0 {
		return nil, ErrNoFeedsRegistered
	}
	return feeds, nil
}

// Store watchlist 存储
func (sc *ServiceContext) Store() port.WatchlistStore {
	return sc.store
}

// PullRemoteConfig 启动时从远端拉配置覆盖本地，远端为空则不动
func (sc *ServiceContext) PullRemoteConfig(ctx context.Context) error {
	if sc.Syncer == nil {
		return nil
	}
	blob, err := sc.Syncer.Pull(ctx)
	if err != nil {
		return err
	}
	if blob == nil {
		log.Info().Msg("remote config empty, keeping local watchlist")
		return nil
	}
	if err := sc.store.ImportJSON(ctx, blob); err != nil {
		return err
	}
	log.Info().Msg("✓ Remote config imported")
	return nil
}

// PushLocalConfig 把本地 watchlist 上传远端
func (sc *ServiceContext) PushLocalConfig(ctx context.Context) error {
	if sc.Syncer == nil {
		return nil
	}
	blob, err := sc.store.ExportJSON(ctx)
	if err != nil {
		return err
	}
	return sc.Syncer.Push(ctx, blob)
}

// Close 按相反顺序关闭所有资源，应用退出时调用
func (sc *ServiceContext) Close() error {
	if sc.Supervisor != nil {
		sc.Supervisor.StopAll()
	}
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	return nil
}
