package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"local-marketplace/internal/api"
)

var lookupAddr string

var lookupCmd = &cobra.Command{
	Use:       "lookup <city|product> <slug>",
	Short:     "Resolve a city or product by slug over the gRPC catalog lookup",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"city", "product"},
	RunE:      runLookup,
}

func init() {
	lookupCmd.Flags().StringVar(&lookupAddr, "grpc", "localhost:9090", "gRPC server address")
}

func runLookup(cmd *cobra.Command, args []string) error {
	conn, err := grpc.NewClient(lookupAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connect to %s: %w", lookupAddr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	c := api.NewCatalogLookupClient(conn)
	var doc *structpb.Struct
	switch args[0] {
	case "city":
		doc, err = c.GetCity(ctx, args[1])
	case "product":
		doc, err = c.GetProduct(ctx, args[1])
	default:
		return fmt.Errorf("unknown lookup kind %q: want city or product", args[0])
	}
	if err != nil {
		return err
	}

	out, err := protojson.MarshalOptions{Multiline: true}.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
