package engine

// Weights 单步评分的权重。构造 Engine 时传入，之后不再修改。
type Weights struct {
	Attack            float64 `mapstructure:"attack" json:"attack"`
	Positional        float64 `mapstructure:"positional" json:"positional"`
	Risk              float64 `mapstructure:"risk" json:"risk"`
	Mobility          float64 `mapstructure:"mobility" json:"mobility"`
	Info              float64 `mapstructure:"info" json:"info"`
	Defense           float64 `mapstructure:"defense" json:"defense"`
	DefenseThreatened float64 `mapstructure:"defenseThreatened" json:"defenseThreatened"`

	// 局面加成
	Escort          float64 `mapstructure:"escort" json:"escort"`
	FakeEscort      float64 `mapstructure:"fakeEscort" json:"fakeEscort"`
	BombCover       float64 `mapstructure:"bombCover" json:"bombCover"`
	BombTrap        float64 `mapstructure:"bombTrap" json:"bombTrap"`
	Feint           float64 `mapstructure:"feint" json:"feint"`
	OpeningFront    float64 `mapstructure:"openingFront" json:"openingFront"`
	OpeningBackMine float64 `mapstructure:"openingBackMine" json:"openingBackMine"`
	OpeningBackDig  float64 `mapstructure:"openingBackDig" json:"openingBackDig"`
	CounterAttack   float64 `mapstructure:"counterAttack" json:"counterAttack"`
}

func DefaultWeights() Weights {
	return Weights{
		Attack:            1.0,
		Positional:        0.35,
		Risk:              0.45,
		Mobility:          0.25,
		Info:              0.1,
		Defense:           0.5,
		DefenseThreatened: 0.8,

		Escort:          0.15,
		FakeEscort:      0.1,
		BombCover:       0.2,
		BombTrap:        0.35,
		Feint:           0.12,
		OpeningFront:    -0.06,
		OpeningBackMine: -0.3,
		OpeningBackDig:  0.25,
		CounterAttack:   0.6,
	}
}
