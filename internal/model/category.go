package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Category 版块
type Category struct {
	ID   string
	Name string
}

// Catalog 有序版块列表，签到按此顺序依次进行
type Catalog []Category

// DefaultCatalog 默认版块列表
var DefaultCatalog = Catalog{
	{"1", "3楼公告版"}, {"2", "泳池"}, {"3", "自拍"}, {"4", "游戏"}, {"6", "意见反馈"},
	{"15", "葫芦山"}, {"16", "玩机广场"}, {"21", "穿越火线"}, {"22", "英雄联盟"}, {"29", "次元阁"},
	{"43", "实用软件"}, {"44", "玩机教程"}, {"45", "原创技术"}, {"57", "头像签名"}, {"58", "恶搞"},
	{"60", "未知版块"}, {"63", "我的世界"}, {"67", "MC贴子"}, {"68", "资源审核"}, {"69", "优秀资源"},
	{"70", "福利活动"}, {"71", "王者荣耀"}, {"76", "娱乐天地"}, {"81", "手机美化"}, {"82", "3楼学院"},
	{"84", "3楼精选"}, {"92", "模型玩具"}, {"94", "三楼活动"}, {"96", "技术分享"}, {"98", "制图工坊"},
	{"102", "LOL手游"}, {"107", "三两影"}, {"108", "新游推荐"}, {"110", "原神"}, {"111", "Steam"},
	{"115", "金铲铲之战"}, {"119", "爱国爱党"}, {"125", "妙易堂"},
}

// LoadCatalog 从 YAML 文件读取版块列表，文件为 "id: 名称" 的映射，保持文件中的顺序
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (Catalog, error) {
	var items yaml.MapSlice
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	catalog := make(Catalog, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		id := fmt.Sprint(item.Key)
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("duplicate category id %q", id)
		}
		seen[id] = struct{}{}
		catalog = append(catalog, Category{ID: id, Name: fmt.Sprint(item.Value)})
	}

	if len(catalog) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}
	return catalog, nil
}
