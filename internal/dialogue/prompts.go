package dialogue

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Prompt texts follow the production phone-bot wording; transports forward
// them verbatim to the speech synthesizer.

const (
	promptApology            = "I encountered an error processing your request. Please try again."
	promptConfirmRetry       = "Please confirm the order by saying 'yes' or 'confirm', or cancel by saying 'no'."
	promptContinueRetry      = "Please say 'yes' to place another order or 'no' to end the call."
	promptOrderCancelled     = "Order cancelled. Thank you for using the Voxdesk trading bot!"
	promptGoodbye            = "Thank you for using the Voxdesk trading bot! Have a great day!"
	promptCallOver           = "This call has ended. Thank you for using the Voxdesk trading bot."
	promptQuantityPriceRetry = "I couldn't understand the quantity and price. Please specify both the quantity and price you'd like to trade at (e.g., '0.1 BTC at 50000' or '100 USDT at 50000')."
	promptUnclearCorrection  = "I didn't understand the correction. Please try again with a clearer format like 'not ethereum, I meant bitcoin' or 'change ethereum to bitcoin'."
)

func promptGreeting(exchanges []string) string {
	return fmt.Sprintf("Hello! Welcome to the Voxdesk trading bot. I'm here to help you place trades. Which exchange would you like to use? Available exchanges: %s.",
		strings.Join(exchanges, ", "))
}

func promptChooseExchange(exchanges []string) string {
	return fmt.Sprintf("Please specify which exchange you'd like to use. Available exchanges: %s",
		strings.Join(exchanges, ", "))
}

func promptExchangeSelected(name string, symbols []string) string {
	if len(symbols) == 0 {
		return fmt.Sprintf("Great! I've selected %s. Now please specify which symbol you'd like to trade.", name)
	}
	return fmt.Sprintf("Great! I've selected %s. Now please specify which symbol you'd like to trade. Available symbols: %s. You can also ask for specific types like 'show only bitcoin symbols' or 'show only ethereum symbols'.",
		name, strings.Join(headSymbols(symbols, 5), ", "))
}

func promptChooseSymbol(symbols []string) string {
	return fmt.Sprintf("Please specify which symbol you'd like to trade. Available symbols: %s. You can also ask for specific types like 'show only bitcoin symbols' or 'show only ethereum symbols'.",
		strings.Join(headSymbols(symbols, 5), ", "))
}

func promptSymbolSelected(symbol string, price decimal.Decimal) string {
	if price.Sign() <= 0 {
		return fmt.Sprintf("Perfect! I've selected %s. Now please specify both the quantity and price you'd like to trade at (e.g., '0.1 BTC at 50000' or '100 USDT at 50000').", symbol)
	}
	return fmt.Sprintf("Perfect! I've selected %s. Current price: $%s USDT. Now please specify both the quantity and price you'd like to trade at (e.g., '0.1 BTC at 50000' or '100 USDT at 50000').",
		symbol, price.StringFixed(2))
}

func promptFilteredSymbols(crypto string, symbols []string) string {
	return fmt.Sprintf("Here are all %s-related symbols: %s", capitalize(crypto), strings.Join(symbols, ", "))
}

func promptNoFilteredSymbols(crypto, exchange string) string {
	return fmt.Sprintf("No %s symbols found on %s. Please try a different symbol or ask to see all available symbols.",
		capitalize(crypto), capitalize(exchange))
}

func promptAllSymbols(symbols []string) string {
	return fmt.Sprintf("Here are all available symbols: %s", strings.Join(symbols, ", "))
}

func promptConfirmOrder(exchange string, quantity decimal.Decimal, symbol string, price decimal.Decimal) string {
	return fmt.Sprintf("Perfect! I'm about to place a %s order for %s %s at $%s USDT. Please confirm by saying 'yes' or 'confirm'.",
		capitalize(exchange), quantity, symbol, price.StringFixed(2))
}

func promptGotQuantity(quantity decimal.Decimal) string {
	return fmt.Sprintf("Got the quantity: %s. Now please specify the price you'd like to trade at (e.g., 'at 50000' or 'price 50000').", quantity)
}

func promptGotPrice(price decimal.Decimal) string {
	return fmt.Sprintf("Got the price: $%s. Now please specify the quantity you'd like to trade (e.g., '0.25 BTC' or '100 USDT').", price.StringFixed(2))
}

func promptOrderPlaced(quantity decimal.Decimal, symbol string, price decimal.Decimal, exchange string) string {
	return fmt.Sprintf("Order placed successfully! %s %s at $%s USDT on %s. Would you like to place another order? Say 'yes' to continue or 'no' to end the call.",
		quantity, symbol, price.StringFixed(2), capitalize(exchange))
}

func promptAnotherOrder(exchanges []string) string {
	return fmt.Sprintf("Perfect! Let's place another order. Please specify which exchange you'd like to use. Available exchanges: %s",
		strings.Join(exchanges, ", "))
}

func promptExchangeChanged(name string, symbols []string) string {
	if len(symbols) == 0 {
		return fmt.Sprintf("Got it! I've changed the exchange to %s. Now please specify which symbol you'd like to trade.", name)
	}
	return fmt.Sprintf("Got it! I've changed the exchange to %s. Now please specify which symbol you'd like to trade. Available symbols: %s.",
		name, strings.Join(headSymbols(symbols, 5), ", "))
}

func promptSymbolChanged(symbol string, price decimal.Decimal) string {
	if price.Sign() <= 0 {
		return fmt.Sprintf("Got it! I've changed the symbol to %s. Now please specify both the quantity and price you'd like to trade at.", symbol)
	}
	return fmt.Sprintf("Got it! I've changed the symbol to %s. Current price: $%s USDT. Now please specify both the quantity and price you'd like to trade at.",
		symbol, price.StringFixed(2))
}

func promptCryptoNotOnExchange(crypto, exchange string) string {
	return fmt.Sprintf("I couldn't find a %s symbol on %s. Please choose from the available symbols.",
		capitalize(crypto), capitalize(exchange))
}

func promptCorrectionAcknowledged(old, replacement string) string {
	return fmt.Sprintf("I've updated your selection from %s to %s. Please continue with your order.",
		capitalize(old), capitalize(replacement))
}

func headSymbols(symbols []string, n int) []string {
	if len(symbols) <= n {
		return symbols
	}
	return symbols[:n]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
