package usecase

import "github.com/vitos/stock_grid/internal/domain"

// Indicators are the chart studies shown next to a plan, computed on the last bar.
// A study needing more bars than available is left at zero.
type Indicators struct {
	Symbol     string  `json:"symbol"`
	Bars       int     `json:"bars"`
	Close      float64 `json:"close"`
	MA5        float64 `json:"ma5"`
	MA20       float64 `json:"ma20"`
	RSI14      float64 `json:"rsi14"`
	K          float64 `json:"k"`
	D          float64 `json:"d"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`
}

func ComputeIndicators(symbol string, candles []domain.Candle) *Indicators {
	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}

	ind := &Indicators{Symbol: symbol, Bars: len(candles)}
	if len(closes) == 0 {
		return ind
	}
	ind.Close = closes[len(closes)-1]
	ind.MA5 = sma(closes, 5)
	ind.MA20 = sma(closes, 20)
	ind.RSI14 = rsi(closes, 14)
	ind.K, ind.D = stochastic(highs, lows, closes, 9)
	if len(closes) >= 26 {
		ind.MACD, ind.MACDSignal, ind.MACDHist = macd(closes)
	}
	return ind
}

func sma(data []float64, period int) float64 {
	if len(data) < period {
		return 0
	}
	sum := 0.0
	for _, v := range data[len(data)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// rsi averages gains and losses over the last period changes.
func rsi(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 0
	}
	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if gain == 0 && loss == 0 {
		return 50
	}
	if loss == 0 {
		return 100
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}

// stochastic is the Taiwan-style KD: K and D smooth RSV with weight 1/3.
func stochastic(highs, lows, closes []float64, period int) (k, d float64) {
	if len(closes) < period {
		return 0, 0
	}
	k, d = 50, 50
	for i := period - 1; i < len(closes); i++ {
		hi, lo := highs[i], lows[i]
		for j := i - period + 1; j <= i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		rsv := 50.0
		if hi != lo {
			rsv = (closes[i] - lo) / (hi - lo) * 100
		}
		k = k*2/3 + rsv/3
		d = d*2/3 + k/3
	}
	return k, d
}

// ema seeds with the first value.
func ema(data []float64, span int) []float64 {
	out := make([]float64, len(data))
	alpha := 2.0 / float64(span+1)
	for i, v := range data {
		if i == 0 {
			out[i] = v
			continue
		}
		out[i] = alpha*v + (1-alpha)*out[i-1]
	}
	return out
}

func macd(closes []float64) (line, signal, hist float64) {
	fast := ema(closes, 12)
	slow := ema(closes, 26)
	dif := make([]float64, len(closes))
	for i := range closes {
		dif[i] = fast[i] - slow[i]
	}
	dea := ema(dif, 9)
	n := len(closes) - 1
	return dif[n], dea[n], dif[n] - dea[n]
}
