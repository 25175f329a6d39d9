package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fadedpez/scrapstats/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default values", t, func() {
		cfg := config.New()

		convey.Convey("Then it should use the documented defaults", func() {
			convey.So(cfg.StorageMethod, convey.ShouldEqual, "internal")
			convey.So(cfg.InstanceName, convey.ShouldEqual, "GamblingStats")
			convey.So(cfg.BackupCount, convey.ShouldEqual, 5)
			convey.So(cfg.FlushInterval, convey.ShouldEqual, 600*time.Second)
			convey.So(cfg.DBHost, convey.ShouldEqual, "localhost")
			convey.So(cfg.DBPort, convey.ShouldEqual, 3306)
			convey.So(cfg.DBUser, convey.ShouldEqual, "root")
			convey.So(cfg.DBName, convey.ShouldEqual, "rust_gambling_stats")
			convey.So(cfg.DiscordEnabled(), convey.ShouldBeFalse)
			convey.So(cfg.HTTPEnabled(), convey.ShouldBeTrue)
			convey.So(cfg.LoadRetryInterval, convey.ShouldEqual, 30*time.Second)
		})

		convey.Convey("Then the player directory is saved next to the ledger", func() {
			convey.So(cfg.PlayersPath(), convey.ShouldEqual, filepath.Join("./data", "GamblingStats_players.json"))

			cfg.PlayersFile = "/var/lib/stats/players.json"
			convey.So(cfg.PlayersPath(), convey.ShouldEqual, "/var/lib/stats/players.json")
		})
	})
}

func TestConfig_Load(t *testing.T) {
	convey.Convey("Given a working directory without a .env file", t, func() {
		wd, err := os.Getwd()
		convey.So(err, convey.ShouldBeNil)
		dir := t.TempDir()
		convey.So(os.Chdir(dir), convey.ShouldBeNil)

		setenv := func(key, value string) {
			convey.So(os.Setenv(key, value), convey.ShouldBeNil)
		}
		convey.Reset(func() {
			os.Chdir(wd)
			for _, key := range []string{config.ConfigFileEnv, "STATS_DB_HOST", "STATS_DB_PORT", "STATS_ADMIN_IDS",
				"STATS_BACKUP_COUNT", "STATS_FLUSH_POLICY", "STATS_DISCORD_TOKEN"} {
				os.Unsetenv(key)
			}
		})

		convey.Convey("When nothing is configured", func() {
			cfg, err := config.Load(context.Background())

			convey.Convey("Then defaults are used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.StorageMethod, convey.ShouldEqual, "internal")
				convey.So(cfg.FlushPolicy, convey.ShouldEqual, "immediate")
			})
		})

		convey.Convey("When a YAML file and environment overrides are set", func() {
			path := filepath.Join(dir, "stats.yaml")
			yaml := "storage_method: MySQL\nbackup_count: 3\ndb_host: db.internal\nflush_interval: 30s\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0644), convey.ShouldBeNil)
			setenv(config.ConfigFileEnv, path)
			setenv("STATS_DB_HOST", "override.internal")
			setenv("STATS_DB_PORT", "3307")
			setenv("STATS_ADMIN_IDS", "1, 2,,3")

			cfg, err := config.Load(context.Background())

			convey.Convey("Then environment wins over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.StorageMethod, convey.ShouldEqual, "mysql")
				convey.So(cfg.BackupCount, convey.ShouldEqual, 3)
				convey.So(cfg.FlushInterval, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.DBHost, convey.ShouldEqual, "override.internal")
				convey.So(cfg.DBPort, convey.ShouldEqual, 3307)
				convey.So(cfg.DBUser, convey.ShouldEqual, "root")
				convey.So(cfg.AdminIDs, convey.ShouldResemble, []string{"1", "2", "3"})
			})
		})

		convey.Convey("When values are invalid", func() {
			setenv("STATS_BACKUP_COUNT", "0")
			setenv("STATS_FLUSH_POLICY", "sometimes")

			_, err := config.Load(context.Background())

			convey.Convey("Then loading fails naming each problem", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "backup_count")
				convey.So(err.Error(), convey.ShouldContainSubstring, "flush_policy")
			})
		})

		convey.Convey("When a Discord token is set without an app id", func() {
			setenv("STATS_DISCORD_TOKEN", "secret")

			_, err := config.Load(context.Background())

			convey.Convey("Then loading fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
