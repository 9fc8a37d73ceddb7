package main

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/shimmeringbee/cec/cache/rediscache"
	"github.com/spf13/cobra"
)

var redisAddr string

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect a shared MessageCache",
	}

	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print the contents of the Redis-backed MessageCache",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := redis.NewClient(&redis.Options{Addr: redisAddr})
			defer client.Close()

			cache := rediscache.New(client)

			for _, entry := range cache.Dump() {
				fmt.Printf("%-6d %-6d %s\n", entry.Source, entry.Opcode, entry.Age)
			}

			return nil
		},
	}
	dump.Flags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis server address")

	cmd.AddCommand(dump)
	return cmd
}
