package types

// 默认参数常量定义
const (
	DefaultTolerance       = 1e-8 // 收敛容差(标幺值)
	DefaultNewtonIter      = 20   // 牛顿法最大迭代次数
	DefaultDecoupledIter   = 100  // 快速解耦法最大迭代次数
	DefaultGaussSeidelIter = 1000 // 高斯-赛德尔法最大迭代次数
	DefaultLimitRounds     = 10   // 无功越限处理最大轮数
	DefaultBasePower       = 100  // 基准容量(MVA)
	DefaultBaseVoltage     = 1    // 基准电压(kV)
)
