// Command train_model trains the dropout classifier from a CSV file
// without going through the HTTP service. The trained model is written
// to the model directory, where a running server picks it up.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"eduguard/ml"
	"eduguard/pipeline"
	"eduguard/student"
)

func main() {
	csvPath := flag.String("csv", "", "训练数据CSV文件")
	modelDir := flag.String("model-dir", "./models", "模型输出目录")
	trials := flag.Int("trials", 20, "超参数搜索次数（0关闭）")
	oversample := flag.Bool("oversample", true, "启用少数类过采样")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	file, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("打开CSV失败: %v", err)
	}
	defer file.Close()

	dataset, err := student.ParseCSV(file)
	if err != nil {
		log.Fatalf("解析CSV失败: %v", err)
	}
	log.Printf("读取 %d 行, 含标签: %v", len(dataset.Records), dataset.HasLabels)

	cleaner := pipeline.NewDataCleaner()
	cleaned, issues, err := cleaner.Clean(dataset)
	if err != nil {
		log.Fatalf("数据清洗失败: %v", err)
	}
	if len(issues) > 0 {
		log.Printf("清洗发现 %d 个质量问题, 有效行 %d", len(issues), len(cleaned))
	}

	config := ml.DefaultTrainConfig()
	config.UseTuning = *trials > 0
	config.TuningTrials = *trials
	config.UseOversample = *oversample

	result, err := ml.TrainModel(cleaned, config)
	if err != nil {
		log.Fatalf("训练失败: %v", err)
	}

	modelPath := filepath.Join(*modelDir, ml.ModelFileName)
	if err := result.Model.Save(modelPath); err != nil {
		log.Fatalf("保存模型失败: %v", err)
	}

	fmt.Println("==== 训练完成 ====")
	fmt.Printf("数据量:    %d (正类 %d / 负类 %d)\n",
		result.DataPoints, result.ClassCounts[1], result.ClassCounts[0])
	fmt.Printf("参数:      trees=%d depth=%d lr=%.3f subsample=%.2f\n",
		result.Params.NumTrees, result.Params.MaxDepth, result.Params.LearningRate, result.Params.Subsample)
	fmt.Printf("Accuracy:  %.4f\n", result.Metrics.Accuracy)
	fmt.Printf("Precision: %.4f\n", result.Metrics.Precision)
	fmt.Printf("Recall:    %.4f\n", result.Metrics.Recall)
	fmt.Printf("F1:        %.4f\n", result.Metrics.F1)
	fmt.Printf("ROC AUC:   %.4f\n", result.Metrics.ROCAUC)
	fmt.Printf("耗时:      %s\n", result.Duration)
	fmt.Printf("模型已保存: %s\n", modelPath)
}
