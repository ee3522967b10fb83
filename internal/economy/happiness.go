package economy

// HappinessWeights are the percentage contributions of each component.
// They normally sum to 100, which puts happiness in [0, 100].
type HappinessWeights struct {
	Wage       int `yaml:"wage" json:"wage"`
	Tax        int `yaml:"tax" json:"tax"`
	Resource   int `yaml:"resource" json:"resource"`
	HouseLevel int `yaml:"house_level" json:"house_level"`
}

// HappinessInputs is the state a citizen's happiness is computed from.
type HappinessInputs struct {
	Earnings      int // Taxable income this week
	Rent          int
	Tax           float64
	MinTax        float64
	MaxTax        float64
	ItemsToBuy    int
	AvgShopPrice  int
	Depletions    int // Empty days this week
	HouseLevel    int
	MaxHouseLevel int
}

// Happiness combines the weighted components, each in [0, 1].
func Happiness(w HappinessWeights, in HappinessInputs) float64 {
	return affordability(in)*float64(w.Wage) +
		taxHappiness(in)*float64(w.Tax) +
		resourceHappiness(in)*float64(w.Resource) +
		houseLevelHappiness(in)*float64(w.HouseLevel)
}

// affordability is what is left of the week's earnings after rent, tax
// and restocking, relative to the rent.
func affordability(in HappinessInputs) float64 {
	if in.Earnings == 0 {
		return 0
	}
	left := float64(in.Earnings) -
		(float64(in.Rent) + float64(in.Earnings)*in.Tax + float64(in.ItemsToBuy*in.AvgShopPrice))
	if left <= 0 {
		return 0
	}
	if in.Rent <= 0 {
		return 1
	}
	return clamp(left/float64(in.Rent), 0, 1)
}

// resourceHappiness loses a seventh for every empty day.
func resourceHappiness(in HappinessInputs) float64 {
	return max(1-float64(in.Depletions)/7, 0)
}

func houseLevelHappiness(in HappinessInputs) float64 {
	if in.MaxHouseLevel <= 0 {
		return 0
	}
	return clamp(float64(in.HouseLevel)/float64(in.MaxHouseLevel), 0, 1)
}

// taxHappiness is 1 at the minimum rate and 0 at the maximum.
func taxHappiness(in HappinessInputs) float64 {
	spread := in.MaxTax - in.MinTax
	if spread <= 0 {
		return 1
	}
	return clamp((in.MinTax-in.Tax)/spread+1, 0, 1)
}
