// Package biz 实现大学问答的 RAG 流程：文档准备、上下文组装、答案生成与查询编排。
package biz
