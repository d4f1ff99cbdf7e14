package cmd

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/rfp-responder/internal/pricing"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a single SKU from the pricing table",
	Run: func(cmd *cobra.Command, _ []string) {
		price(cmd.Flag("sku").Value.String(), cmd.Flag("quantity").Value.String())
	},
}

func init() {
	rootCmd.AddCommand(priceCmd)

	priceCmd.Flags().StringP("sku", "s", "", "sku id to price")
	priceCmd.Flags().StringP("quantity", "q", pricing.DefaultQuantity.String(), "quantity to price")
	priceCmd.MarkFlagRequired("sku")
}

func price(sku, rawQuantity string) {
	logger, _, application := prepare(context.Background())

	quantity, err := decimal.NewFromString(strings.TrimSpace(rawQuantity))
	if err != nil || quantity.IsNegative() {
		logger.Fatal("quantity must be a non-negative number", zap.String("quantity", rawQuantity))
	}

	if err := printJSON(application.pipeline.Calculator().PriceItem(sku, quantity)); err != nil {
		logger.Fatal("printing the result", zap.Error(err))
	}
}
