package model

// Brand 设备品牌标识
type Brand string

const (
	BrandMI     Brand = "MI"
	BrandHuawei Brand = "Huawei"
	BrandUN     Brand = "UN"
	BrandOPPO   Brand = "OPPO"
	BrandVO     Brand = "VO"
)

// Brands 随机选择的品牌范围，顺序固定
var Brands = []Brand{BrandMI, BrandHuawei, BrandUN, BrandOPPO, BrandVO}

// DeviceFingerprint 账号绑定的设备标识，生成后不再修改
type DeviceFingerprint struct {
	DeviceCode string `json:"device_code"`
	BrandTag   Brand  `json:"phone_brand_type"`
}
